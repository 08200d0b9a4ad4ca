package export

import (
	"fmt"

	"github.com/pkg/errors"
	gogeom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/chazu/papercut/pkg/unfold"
)

// FeatureCollection returns one polygon feature per face of n, placed on
// its page. Coordinates are relative to the printable area, or to the
// island itself when the net was not packed.
func FeatureCollection(n *unfold.Net) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{}
	for _, isl := range n.Islands() {
		for _, poly := range isl.Polygons() {
			ring := make([]gogeom.Coord, 0, len(poly.Points)+1)
			for _, p := range poly.Points {
				p = p.Add(isl.Pos)
				ring = append(ring, gogeom.Coord{p.X, p.Y})
			}
			ring = append(ring, ring[0])
			g, err := gogeom.NewPolygon(gogeom.XY).SetCoords([][]gogeom.Coord{ring})
			if err != nil {
				return nil, errors.Wrapf(err, "export: face %d", poly.Face)
			}
			fc.Features = append(fc.Features, &geojson.Feature{
				ID:       fmt.Sprintf("face-%d", poly.Face),
				Geometry: g,
				Properties: map[string]interface{}{
					"face":   poly.Face,
					"island": isl.Number,
					"label":  isl.Label,
					"page":   isl.Page,
				},
			})
		}
	}
	return fc, nil
}

// GeoJSON encodes FeatureCollection(n).
func GeoJSON(n *unfold.Net) ([]byte, error) {
	fc, err := FeatureCollection(n)
	if err != nil {
		return nil, err
	}
	data, err := fc.MarshalJSON()
	return data, errors.Wrap(err, "export: encoding geojson")
}
