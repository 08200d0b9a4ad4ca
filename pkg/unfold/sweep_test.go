package unfold

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chazu/papercut/pkg/geom"
)

func seg(id int, a, b geom.Vec, flipped bool) *segment {
	return newSegment(id, 2*id, 2*id+1, a, b, flipped, false)
}

func TestSweep(t *testing.T) {
	tests := []struct {
		name         string
		segments     []*segment
		quick, brute sweepResult
	}{
		{
			name: "crossing",
			segments: []*segment{
				seg(0, geom.Vec{}, geom.Vec{X: 2, Y: 2}, false),
				seg(1, geom.Vec{Y: 2}, geom.Vec{X: 2}, false),
			},
			quick: sweepOverlap,
			brute: sweepOverlap,
		},
		{
			name: "parallel",
			segments: []*segment{
				seg(0, geom.Vec{}, geom.Vec{X: 2}, false),
				seg(1, geom.Vec{X: 2, Y: 1}, geom.Vec{Y: 1}, false),
			},
			quick: sweepOK,
			brute: sweepOK,
		},
		{
			name: "collinear same side",
			segments: []*segment{
				seg(0, geom.Vec{}, geom.Vec{X: 2}, false),
				seg(1, geom.Vec{X: 1}, geom.Vec{X: 3}, false),
			},
			quick: sweepInconsistent,
			brute: sweepOverlap,
		},
		{
			name: "collinear opposite sides",
			segments: []*segment{
				seg(0, geom.Vec{}, geom.Vec{X: 2}, false),
				seg(1, geom.Vec{X: 1}, geom.Vec{X: 3}, true),
			},
			quick: sweepInconsistent,
			brute: sweepOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.quick, sweep(&quickSweep{}, tt.segments), "quick")
			assert.Equal(t, tt.brute, sweep(&bruteSweep{}, tt.segments), "brute")
		})
	}
}

func TestIsBelow(t *testing.T) {
	low := seg(0, geom.Vec{}, geom.Vec{X: 4}, false)
	high := seg(1, geom.Vec{X: 1, Y: 1}, geom.Vec{X: 3, Y: 2}, false)

	below, res := isBelow(low, high, true)
	assert.Equal(t, sweepOK, res)
	assert.True(t, below)

	below, res = isBelow(high, low, true)
	assert.Equal(t, sweepOK, res)
	assert.False(t, below)

	below, res = isBelow(low, low, true)
	assert.Equal(t, sweepOK, res)
	assert.False(t, below)
}

func TestSweepResultString(t *testing.T) {
	assert.Equal(t, "ok", sweepOK.String())
	assert.Equal(t, "overlap", sweepOverlap.String())
	assert.Equal(t, "inconsistent", sweepInconsistent.String())
}
