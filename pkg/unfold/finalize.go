package unfold

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/chazu/papercut/pkg/geom"
	"github.com/chazu/papercut/pkg/pack"
)

// enumerate numbers the islands in their current order and gives unnamed
// ones a default label.
func (n *Net) enumerate() {
	for i, isl := range n.islands {
		isl.Number = i + 1
		isl.generateLabel("", "")
	}
}

func (isl *Island) generateLabel(label, abbreviation string) {
	abbr := lo.Ternary(abbreviation != "", abbreviation, isl.Abbreviation)
	if abbr == "" {
		abbr = strconv.Itoa(isl.Number)
	}
	if upsideDownWrong(abbr) {
		abbr += "."
	}
	isl.Abbreviation = abbr
	isl.Label = lo.Ternary(label != "", label, isl.Label)
	if isl.Label == "" {
		isl.Label = fmt.Sprintf("Island %d", isl.Number)
	}
}

// Rename sets the label and abbreviation of the island. Empty values keep
// the current ones.
func (isl *Island) Rename(label, abbreviation string) {
	isl.generateLabel(label, abbreviation)
	if isl.Title != "" {
		isl.Title = fmt.Sprintf("[%s] %s", isl.Abbreviation, isl.Label)
	}
}

// scale resizes all islands; marker orientations are kept.
func (n *Net) scale(k float64) {
	for _, isl := range n.islands {
		for _, v := range isl.verts {
			n.verts[v].co = n.verts[v].co.MulScalar(k)
		}
		for i := range isl.Markers {
			isl.Markers[i].scale(k)
		}
	}
}

// finalize turns every island to its tightest bounding rectangle and moves
// it to the origin. A positive titleHeight reserves room for a title below
// the island.
func (n *Net) finalize(titleHeight float64) {
	for _, isl := range n.islands {
		if titleHeight > 0 {
			isl.Title = fmt.Sprintf("[%s] %s", isl.Abbreviation, isl.Label)
		}
		isl.titleHeight = titleHeight
		isl.normalize(geom.BoxFitAngle(isl.points()))
	}
}

// fit packs the islands onto pages of the given printable area. Islands
// that do not fit as they are get turned until they do.
func (n *Net) fit(ctx context.Context, area geom.Vec) error {
	for _, isl := range n.islands {
		isl.orient(area)
	}

	sizes := lo.Map(n.islands, func(isl *Island, _ int) geom.Vec { return isl.BoundingBox })
	pages, err := pack.Fit(ctx, sizes, area)
	if err != nil {
		var oversized *pack.OversizedError
		if errors.As(err, &oversized) {
			isl := n.islands[oversized.Index]
			return errors.WithStack(&OversizedIslandError{
				Island: isl.Number,
				Label:  isl.Label,
				Size:   isl.BoundingBox,
				Page:   area,
			})
		}
		return errors.Wrap(err, "unfold: packing")
	}

	n.page = &area
	n.pages = make([]Page, len(pages))
	for pi, p := range pages {
		n.pages[pi].Number = pi + 1
		for _, item := range p.Items {
			isl := n.islands[item.Index]
			isl.Pos = item.Pos
			isl.Page = pi
			n.pages[pi].Islands = append(n.pages[pi].Islands, isl)
		}
	}
	return nil
}
