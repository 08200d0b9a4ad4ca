package geom

// DirectionToFloat maps a direction to a scalar in (-2, 2] that is monotonic
// in its angle, starting just above the positive X axis and going
// counter-clockwise. It is cheaper than atan2 and sufficient for sorting.
func DirectionToFloat(v Vec) float64 {
	l := v.Length()
	if v.Y > 0 {
		return 1 - v.X/l
	}
	return v.X/l - 1
}

// Slope maps a direction to a scalar in [-2, 2] that orders directions
// around a point, splitting the circle between "right-pointing" directions
// (lexicographically above the origin) and the rest.
func Slope(v Vec) float64 {
	l := v.Length()
	if Less(Vec{}, v) {
		return v.Y/l + 1
	}
	return -1 - v.Y/l
}
