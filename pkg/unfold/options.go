package unfold

import (
	"github.com/pkg/errors"

	"github.com/chazu/papercut/pkg/geom"
)

// Weights tune the cutting heuristic. Edges with a low weighted score are
// considered first for folding.
type Weights struct {
	Convex  float64 `mapstructure:"convex" json:"convex"`
	Concave float64 `mapstructure:"concave" json:"concave"`
	Length  float64 `mapstructure:"length" json:"length"`
}

// Options configures an unfold run. Lengths are in model units, except
// PageSize, Margin and StickerWidth, which are in page units; Scale converts
// the former into the latter.
type Options struct {
	Weights Weights `mapstructure:"weights" json:"weights"`

	// PageSize enables packing and, with LimitByPage, keeps islands small
	// enough to fit a page. Nil means unlimited.
	PageSize    *geom.Vec `mapstructure:"-" json:"pageSize,omitempty"`
	Margin      float64   `mapstructure:"margin" json:"margin"`
	LimitByPage bool      `mapstructure:"limit_by_page" json:"limitByPage"`

	// Epsilon is the vertex welding tolerance relative to the squared length
	// of the edge being joined.
	Epsilon float64 `mapstructure:"epsilon" json:"epsilon"`
	Scale   float64 `mapstructure:"scale" json:"scale"`

	Stickers     bool    `mapstructure:"stickers" json:"stickers"`
	StickerWidth float64 `mapstructure:"sticker_width" json:"stickerWidth"`
	Numbers      bool    `mapstructure:"numbers" json:"numbers"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Weights:      Weights{Convex: 0.5, Concave: 1, Length: -0.05},
		LimitByPage:  true,
		Epsilon:      1e-6,
		Scale:        1,
		StickerWidth: 5,
	}
}

// A4 is the portrait ISO A4 page in millimetres.
var A4 = geom.Vec{X: 210, Y: 297}

// Validate reports the first inconsistent setting.
func (o Options) Validate() error {
	switch {
	case !(o.Scale > 0):
		return errors.Errorf("unfold: scale must be positive, got %v", o.Scale)
	case o.Epsilon < 0:
		return errors.Errorf("unfold: epsilon must not be negative, got %v", o.Epsilon)
	case o.Margin < 0:
		return errors.Errorf("unfold: margin must not be negative, got %v", o.Margin)
	case o.StickerWidth < 0:
		return errors.Errorf("unfold: sticker width must not be negative, got %v", o.StickerWidth)
	}
	if o.PageSize != nil {
		p, _ := o.Printable()
		if !(p.X > 0 && p.Y > 0) {
			return errors.Errorf("unfold: page %vx%v leaves no printable area with margin %v",
				o.PageSize.X, o.PageSize.Y, o.Margin)
		}
	}
	return nil
}

// Printable returns the page size minus the margins, if a page is set.
func (o Options) Printable() (geom.Vec, bool) {
	if o.PageSize == nil {
		return geom.Vec{}, false
	}
	return geom.Vec{X: o.PageSize.X - 2*o.Margin, Y: o.PageSize.Y - 2*o.Margin}, true
}
