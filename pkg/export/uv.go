package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/chazu/papercut/pkg/unfold"
)

// WriteUVTable writes one line per face corner:
//
//	face corner u v page
//
// u and v are normalized to the printable area of the page.
func WriteUVTable(w io.Writer, n *unfold.Net) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# face corner u v page")
	for _, f := range n.UVs() {
		for i, uv := range f.UV {
			fmt.Fprintf(bw, "%d %d %.6f %.6f %d\n", f.Face, i, uv.X, uv.Y, f.Page)
		}
	}
	return errors.Wrap(bw.Flush(), "export: writing uv table")
}
