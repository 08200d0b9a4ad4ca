package unfold

import (
	"fmt"

	"github.com/chazu/papercut/pkg/geom"
)

// OversizedIslandError is returned when an island does not fit on an empty
// page in either orientation. The model has to be scaled down or the island
// split by marking seams.
type OversizedIslandError struct {
	Island int // island number, starting at 1
	Label  string
	Size   geom.Vec
	Page   geom.Vec // printable area
}

func (e *OversizedIslandError) Error() string {
	return fmt.Sprintf("%s is %.4g x %.4g, too big for a %.4g x %.4g page; downscale the model or split the island",
		e.Label, e.Size.X, e.Size.Y, e.Page.X, e.Page.Y)
}
