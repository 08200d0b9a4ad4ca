// Package export writes unfolded nets as printable SVG pages, as a GeoJSON
// feature collection, and as a plain table of texture coordinates.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo/float"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/papercut/pkg/geom"
	"github.com/chazu/papercut/pkg/unfold"
)

// Stylesheet is embedded into every page.
const Stylesheet = `
.outer { stroke: #000; stroke-width: 0.3; fill: none; stroke-linejoin: bevel }
.cut { stroke: #000; stroke-width: 0.3; fill: none }
.convex { stroke: #000; stroke-width: 0.2; stroke-dasharray: 4 2; fill: none }
.concave { stroke: #000; stroke-width: 0.2; stroke-dasharray: 1 1.5 4 1.5; fill: none }
.highlight { stroke: #c00; stroke-width: 0.6; fill: none }
.sticker { fill: #eee; stroke: none }
.arrow { fill: #000 }
text { font-family: sans-serif; text-anchor: middle; dominant-baseline: central }
.title { text-anchor: start }
`

const arrowPath = "M 0 0 L 1 1 L 0 0.25 L -1 1 Z"

// SVGOptions describe the sheet the net was packed for.
type SVGOptions struct {
	PageSize geom.Vec // full sheet in page units (millimetres)
	Margin   float64
	Decimals int // digits after the decimal point, 3 when zero
}

// page maps island coordinates (y up) onto SVG coordinates (y down).
type page struct {
	size   geom.Vec
	margin float64
}

func (p page) point(isl *unfold.Island, v geom.Vec) geom.Vec {
	return geom.Vec{
		X: p.margin + isl.Pos.X + v.X,
		Y: p.size.Y - (p.margin + isl.Pos.Y + v.Y),
	}
}

// matrix returns the SVG transform that places a frame rotated by m at
// island point at.
func (p page) matrix(isl *unfold.Island, m geom.Mat2, at geom.Vec) string {
	c := p.point(isl, at)
	return fmt.Sprintf("matrix(%g %g %g %g %g %g)", m.A, -m.C, -m.B, m.D, c.X, c.Y)
}

// WriteSVG writes page index pi of n. The net must have been packed.
func WriteSVG(w io.Writer, n *unfold.Net, pi int, opts SVGOptions) error {
	pages := n.Pages()
	if pi < 0 || pi >= len(pages) {
		return errors.Errorf("export: page %d out of range, the net has %d pages", pi, len(pages))
	}
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Decimals = opts.Decimals
	if canvas.Decimals == 0 {
		canvas.Decimals = 3
	}
	pg := page{size: opts.PageSize, margin: opts.Margin}

	canvas.StartviewUnit(opts.PageSize.X, opts.PageSize.Y, "mm", 0, 0, opts.PageSize.X, opts.PageSize.Y)
	canvas.Title(fmt.Sprintf("Page %d", pages[pi].Number))
	canvas.Style("text/css", Stylesheet)
	for _, isl := range pages[pi].Islands {
		writeIsland(canvas, pg, isl)
	}
	canvas.End()
	return errors.Wrapf(ew.err, "export: writing page %d", pages[pi].Number)
}

func writeIsland(canvas *svg.SVG, pg page, isl *unfold.Island) {
	canvas.Gid(fmt.Sprintf("island-%d", isl.Number))

	for _, m := range isl.Markers {
		if m.Kind == unfold.StickerMarker {
			xs, ys := coords(pg, isl, m.Vertices)
			canvas.Polygon(xs, ys, `class="sticker"`)
		}
	}
	for _, loop := range isl.Loops(true) {
		xs, ys := coords(pg, isl, loop)
		canvas.Polygon(xs, ys, `class="outer"`)
	}
	for _, l := range isl.Lines() {
		a, b := pg.point(isl, l.A), pg.point(isl, l.B)
		canvas.Line(a.X, a.Y, b.X, b.Y, fmt.Sprintf(`class="%s"`, l.Kind))
	}
	for _, m := range isl.Markers {
		writeMarker(canvas, pg, isl, m)
	}
	if isl.Title != "" {
		h := isl.TitleHeight()
		at := pg.point(isl, geom.Vec{X: 0, Y: h / 2})
		canvas.Text(at.X, at.Y, isl.Title, `class="title"`, fmt.Sprintf(`font-size="%g"`, 0.8*h))
	}
	canvas.Gend()
}

func writeMarker(canvas *svg.SVG, pg page, isl *unfold.Island, m unfold.Marker) {
	switch m.Kind {
	case unfold.StickerMarker, unfold.NumberMarker:
		if m.Text == "" {
			return
		}
		canvas.Gtransform(pg.matrix(isl, m.Rot, m.Center))
		canvas.Text(0, 0, m.Text, fmt.Sprintf(`font-size="%g"`, m.Size))
		canvas.Gend()
	case unfold.ArrowMarker:
		canvas.Gtransform(pg.matrix(isl, m.Rot, m.Center))
		s := m.Size / 2
		canvas.Path(arrowPath, `class="arrow"`, fmt.Sprintf(`transform="scale(%g)"`, s))
		canvas.Text(0, 1.8*s, m.Text, fmt.Sprintf(`font-size="%g"`, m.Size))
		canvas.Gend()
	}
}

func coords(pg page, isl *unfold.Island, pts []geom.Vec) (xs, ys []float64) {
	xs, ys = make([]float64, len(pts)), make([]float64, len(pts))
	for i, v := range pts {
		p := pg.point(isl, v)
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

// RenderPages renders every page of n concurrently. The result is indexed
// like n.Pages().
func RenderPages(ctx context.Context, n *unfold.Net, opts SVGOptions) ([][]byte, error) {
	if _, ok := n.Printable(); !ok {
		return nil, errors.New("export: the net was not packed onto pages")
	}
	out := make([][]byte, len(n.Pages()))
	g, ctx := errgroup.WithContext(ctx)
	for pi := range out {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := WriteSVG(&buf, n, pi, opts); err != nil {
				return err
			}
			out[pi] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// PageFileName returns the file name of page number num (1-based) for the
// given output prefix.
func PageFileName(prefix string, num int) string {
	return fmt.Sprintf("%s_page%d.svg", strings.TrimSuffix(prefix, ".svg"), num)
}

// errWriter keeps the first write error; the SVG writer does not report
// them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
