package main

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chazu/papercut/pkg/geom"
	"github.com/chazu/papercut/pkg/unfold"
)

// pageSizes are the page names accepted by --page, in millimetres.
var pageSizes = map[string]geom.Vec{
	"a3":     {X: 297, Y: 420},
	"a4":     unfold.A4,
	"a5":     {X: 148, Y: 210},
	"letter": {X: 215.9, Y: 279.4},
	"legal":  {X: 215.9, Y: 355.6},
}

// addOptionFlags declares the flags that override unfold options. None has
// a default: an unset flag keeps the value chosen by the model file.
func addOptionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("page", "", `Page size: a name (a3, a4, a5, letter, legal) or "WIDTHxHEIGHT" in mm.`)
	f.Float64("margin", 0, "Page margin in mm.")
	f.Bool("limit_by_page", true, "Keep every island small enough to fit a page.")
	f.Float64("scale", 0, "Page millimetres per model unit.")
	f.Float64("epsilon", 0, "Vertex welding tolerance, relative to the joined edge length.")
	f.Float64("convex", 0, "Cut priority weight of convex folds.")
	f.Float64("concave", 0, "Cut priority weight of concave folds.")
	f.Float64("length", 0, "Cut priority weight of edge length.")
	f.Bool("stickers", false, "Add glue tabs to cut edges.")
	f.Float64("sticker_width", 0, "Glue tab width in mm; also sizes edge numbers.")
	f.Bool("numbers", false, "Number the cut edges.")
}

// applyOptions overrides o with every option set in conf, by flag,
// environment variable or config file, and validates the result.
func applyOptions(conf *viper.Viper, o *unfold.Options) error {
	floats := map[string]*float64{
		"margin":        &o.Margin,
		"scale":         &o.Scale,
		"epsilon":       &o.Epsilon,
		"convex":        &o.Weights.Convex,
		"concave":       &o.Weights.Concave,
		"length":        &o.Weights.Length,
		"sticker_width": &o.StickerWidth,
	}
	for key, dst := range floats {
		if conf.IsSet(key) {
			*dst = conf.GetFloat64(key)
		}
	}
	bools := map[string]*bool{
		"limit_by_page": &o.LimitByPage,
		"stickers":      &o.Stickers,
		"numbers":       &o.Numbers,
	}
	for key, dst := range bools {
		if conf.IsSet(key) {
			*dst = conf.GetBool(key)
		}
	}
	if conf.IsSet("page") {
		size, err := parsePage(conf.GetString("page"))
		if err != nil {
			return err
		}
		o.PageSize = &size
	}
	return o.Validate()
}

// parsePage reads a page name or a "WIDTHxHEIGHT" size.
func parsePage(s string) (geom.Vec, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if size, ok := pageSizes[s]; ok {
		return size, nil
	}
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return geom.Vec{}, errors.Errorf("page %q: expected a name or WIDTHxHEIGHT", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil {
		return geom.Vec{}, errors.Wrapf(err, "page %q: width", s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil {
		return geom.Vec{}, errors.Wrapf(err, "page %q: height", s)
	}
	if !(x > 0 && y > 0) {
		return geom.Vec{}, errors.Errorf("page %q: size must be positive", s)
	}
	return geom.Vec{X: x, Y: y}, nil
}
