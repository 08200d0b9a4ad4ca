package geom

import (
	"math"
	"sort"

	"github.com/samber/lo"
	gogeom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// BoxFitAngle returns the rotation angle that, applied to points, makes
// their minimum-area bounding rectangle axis-aligned. Only directions of
// convex hull edges are candidates (rotating calipers). Fewer than three
// distinct points yield the angle that lays them along the X axis.
func BoxFitAngle(points []Vec) float64 {
	return BoxFitAngles(points)[0]
}

// BoxFitAngles returns the rotation angles that align an edge of the convex
// hull of points with the X axis, ordered by the area of the resulting
// bounding rectangle, smallest first. The result is never empty.
func BoxFitAngles(points []Vec) []float64 {
	seen := make(map[Vec]struct{}, len(points))
	flat := make([]float64, 0, 2*len(points))
	var first, second Vec
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		switch len(seen) {
		case 0:
			first = p
		case 1:
			second = p
		}
		seen[p] = struct{}{}
		flat = append(flat, p.X, p.Y)
	}
	switch len(seen) {
	case 0, 1:
		return []float64{0}
	case 2:
		// The Graham scan needs at least three distinct points.
		d := second.Sub(first)
		return []float64{-math.Atan2(d.Y, d.X)}
	}
	hull := xy.ConvexHullFlat(gogeom.XY, flat)
	if hull == nil {
		return []float64{0}
	}
	coords := hull.FlatCoords()
	n := len(coords) / 2
	if n < 2 {
		return []float64{0}
	}
	hullPoints := make([]Vec, n)
	for i := range hullPoints {
		hullPoints[i] = Vec{X: coords[2*i], Y: coords[2*i+1]}
	}

	type candidate struct{ angle, area float64 }
	var found []candidate
	for i := 0; i < n; i++ {
		a, b := hullPoints[i], hullPoints[(i+1)%n]
		d := b.Sub(a)
		if d.Length2() == 0 {
			continue
		}
		angle := -math.Atan2(d.Y, d.X)
		rot := Rotation(angle)
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, p := range hullPoints {
			q := rot.Apply(p)
			minX, maxX = math.Min(minX, q.X), math.Max(maxX, q.X)
			minY, maxY = math.Min(minY, q.Y), math.Max(maxY, q.Y)
		}
		found = append(found, candidate{angle, (maxX - minX) * (maxY - minY)})
	}
	if len(found) == 0 {
		return []float64{0}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].area < found[j].area })
	return lo.Map(found, func(c candidate, _ int) float64 { return c.angle })
}
