package unfold

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chazu/papercut/pkg/geom"
	"github.com/chazu/papercut/pkg/mesh"
)

// Unfold cuts m into islands, decorates them as configured and, if a page
// size is set, packs them onto pages. An island that cannot fit a page is
// reported as *OversizedIslandError.
func Unfold(ctx context.Context, m *mesh.Mesh, opts Options) (*Net, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	n := newNet(m)

	printable, paged := opts.Printable()
	var limit *geom.Vec
	if paged && opts.LimitByPage {
		l := printable.MulScalar(1 / opts.Scale)
		limit = &l
	}
	if err := n.generateCuts(ctx, opts.Weights, limit, opts.Epsilon); err != nil {
		return nil, err
	}
	n.finalize(0)
	n.enumerate()
	n.scale(opts.Scale)

	switch {
	case opts.Stickers:
		n.generateStickers(opts.StickerWidth, opts.Numbers)
	case opts.Numbers:
		n.generateNumbersAlone(opts.StickerWidth)
	}
	title := 0.0
	if opts.Numbers && len(n.islands) > 1 {
		title = 1.2 * opts.StickerWidth
	}
	n.finalize(title)

	if paged {
		if err := n.fit(ctx, printable); err != nil {
			return nil, err
		}
	}
	Logger().Info("unfolded",
		zap.Int("faces", len(m.Faces)), zap.Int("islands", len(n.islands)),
		zap.Int("pages", len(n.pages)), zap.Int("seams", len(n.SeamEdges())))
	return n, nil
}

// FromInput builds the mesh from in and unfolds it.
func FromInput(ctx context.Context, in mesh.Input, opts Options) (*Net, error) {
	m, err := mesh.Build(ctx, in)
	if err != nil {
		return nil, err
	}
	n, err := Unfold(ctx, m, opts)
	return n, errors.WithMessage(err, "unfold")
}
