package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/chazu/papercut/pkg/kernel/sdfx"
	"github.com/chazu/papercut/pkg/mesh"
)

const squareSource = `
;; unit square
(def a (vertex 0 0 0))
(def b (vertex 1 0 0))
(def c (vertex 1 1 0))
(def d (vertex 0 1 0))
(face a b c d)
`

// evaluate runs source and fails the test on any error.
func evaluate(t *testing.T, eng *Engine, source string) *Model {
	t.Helper()
	m, evalErrs, err := eng.Evaluate(context.Background(), source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	return m
}

// evalError runs source and returns the first eval error message.
func evalError(t *testing.T, eng *Engine, source string) string {
	t.Helper()
	m, evalErrs, err := eng.Evaluate(context.Background(), source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil model on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected an eval error")
	}
	return evalErrs[0].Message
}

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(scale :factor 2)`,
			expect: `(scale "__kw_factor" 2)`,
		},
		{
			name:   "multiple keywords",
			input:  `(page :width 210 :height 297)`,
			expect: `(page "__kw_width" 210 "__kw_height" 297)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"say \":no\"" :yes`,
			expect: `"say \":no\"" "__kw_yes"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def tab-width 5)`,
			expect: `(def tab_width 5)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:sticker-width`,
			expect: `"__kw_sticker-width"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Mesh builtins
// ---------------------------------------------------------------------------

func TestSquare(t *testing.T) {
	m := evaluate(t, NewEngine(nil), squareSource)

	if len(m.Input.Vertices) != 4 {
		t.Fatalf("expected 4 vertices, got %d", len(m.Input.Vertices))
	}
	if v := m.Input.Vertices[2]; v.X != 1 || v.Y != 1 || v.Z != 0 {
		t.Errorf("vertex 2 = %v, want (1, 1, 0)", v)
	}
	if len(m.Input.Faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(m.Input.Faces))
	}
	for i, v := range []int{0, 1, 2, 3} {
		if m.Input.Faces[0][i] != v {
			t.Errorf("face corner %d = %d, want %d", i, m.Input.Faces[0][i], v)
		}
	}
	if _, err := mesh.Build(context.Background(), m.Input); err != nil {
		t.Errorf("model should build: %v", err)
	}
}

func TestFaceFromList(t *testing.T) {
	m := evaluate(t, NewEngine(nil), `
(vertex 0 0 0)
(vertex 1 0 0)
(vertex 0 1 0)
(face (list 0 1 2))
`)
	if len(m.Input.Faces) != 1 || len(m.Input.Faces[0]) != 3 {
		t.Fatalf("expected one triangle, got %v", m.Input.Faces)
	}
}

func TestVertexFromVec3(t *testing.T) {
	m := evaluate(t, NewEngine(nil), `(vertex (vec3 1.5 -2 3))`)
	if len(m.Input.Vertices) != 1 {
		t.Fatalf("expected 1 vertex, got %d", len(m.Input.Vertices))
	}
	if v := m.Input.Vertices[0]; v.X != 1.5 || v.Y != -2 || v.Z != 3 {
		t.Errorf("vertex = %v, want (1.5, -2, 3)", v)
	}
}

func TestFaceErrors(t *testing.T) {
	eng := NewEngine(nil)
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"unknown vertex", squareSource + "(face 0 1 7)", "no vertex 7"},
		{"too few corners", squareSource + "(face 0 1)", "at least 3"},
		{"non-integer index", squareSource + "(face 0 1 2.5)", "expected integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg := evalError(t, eng, tt.source); !strings.Contains(msg, tt.want) {
				t.Errorf("error %q should contain %q", msg, tt.want)
			}
		})
	}
}

func TestSeamAndHighlight(t *testing.T) {
	m := evaluate(t, NewEngine(nil), squareSource+`
(seam 0 1)
(highlight 1 0)
(highlight 2 3)
`)
	edges := m.Input.Edges
	if len(edges) != 2 {
		t.Fatalf("expected 2 edge specs, got %d: %v", len(edges), edges)
	}
	if !edges[0].ForceCut || !edges[0].Highlight {
		t.Errorf("edge 0-1 should be a highlighted seam, got %+v", edges[0])
	}
	if edges[1].ForceCut || !edges[1].Highlight {
		t.Errorf("edge 2-3 should only be highlighted, got %+v", edges[1])
	}
}

func TestSeamErrors(t *testing.T) {
	eng := NewEngine(nil)
	if msg := evalError(t, eng, squareSource+"(seam 1 1)"); !strings.Contains(msg, "itself") {
		t.Errorf("unexpected error: %s", msg)
	}
	if msg := evalError(t, eng, squareSource+"(seam 1)"); !strings.Contains(msg, "exactly 2") {
		t.Errorf("unexpected error: %s", msg)
	}
}

// ---------------------------------------------------------------------------
// Option builtins
// ---------------------------------------------------------------------------

func TestOptions(t *testing.T) {
	m := evaluate(t, NewEngine(nil), `
(priority :convex 2 :concave 0.5 :length -0.1)
(page :width 100 :height 150 :margin 5 :limit true)
(stickers :width 4 :numbers true)
(scale 20)
`)
	o := m.Options
	if o.Weights.Convex != 2 || o.Weights.Concave != 0.5 || o.Weights.Length != -0.1 {
		t.Errorf("weights = %+v", o.Weights)
	}
	if o.PageSize == nil || o.PageSize.X != 100 || o.PageSize.Y != 150 {
		t.Errorf("page size = %v, want 100x150", o.PageSize)
	}
	if o.Margin != 5 || !o.LimitByPage {
		t.Errorf("margin = %g, limit = %v", o.Margin, o.LimitByPage)
	}
	if !o.Stickers || o.StickerWidth != 4 || !o.Numbers {
		t.Errorf("stickers = %v, width = %g, numbers = %v", o.Stickers, o.StickerWidth, o.Numbers)
	}
	if o.Scale != 20 {
		t.Errorf("scale = %g, want 20", o.Scale)
	}
	if err := o.Validate(); err != nil {
		t.Errorf("options should validate: %v", err)
	}
}

func TestPageDefaultsToA4(t *testing.T) {
	m := evaluate(t, NewEngine(nil), `(page :margin 8)`)
	if m.Options.PageSize == nil || m.Options.PageSize.X != 210 || m.Options.PageSize.Y != 297 {
		t.Errorf("page size = %v, want A4", m.Options.PageSize)
	}
	if m.Options.Margin != 8 {
		t.Errorf("margin = %g, want 8", m.Options.Margin)
	}
}

func TestOptionErrors(t *testing.T) {
	eng := NewEngine(nil)
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"zero scale", `(scale 0)`, "must be positive"},
		{"negative page", `(page :width -1)`, "must be positive"},
		{"bad limit", `(page :limit 1)`, "expected true or false"},
		{"bad weight", `(priority :convex "x")`, "expected number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg := evalError(t, eng, tt.source); !strings.Contains(msg, tt.want) {
				t.Errorf("error %q should contain %q", msg, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Solid builtins
// ---------------------------------------------------------------------------

func TestSolidWithoutKernel(t *testing.T) {
	msg := evalError(t, NewEngine(nil), `(solid (box :size (vec3 1 1 1)))`)
	if !strings.Contains(msg, "no geometry kernel") {
		t.Errorf("unexpected error: %s", msg)
	}
}

func TestSolidBox(t *testing.T) {
	m := evaluate(t, NewEngine(sdfx.New()), squareSource+`
(solid (box :size (vec3 10 10 10) :at (vec3 20 0 0)) :cells 8)
`)
	if len(m.Input.Faces) < 12 {
		t.Fatalf("expected a tessellated box, got %d faces", len(m.Input.Faces))
	}
	if len(m.Input.Faces[0]) != 4 {
		t.Errorf("the explicit square should stay first, got %v", m.Input.Faces[0])
	}
	for _, v := range m.Input.Vertices[4:] {
		if v.X < 19 {
			t.Errorf("box vertex %v should lie beyond x=19", v)
			break
		}
	}
	if _, err := mesh.Build(context.Background(), m.Input); err != nil {
		t.Errorf("model should build: %v", err)
	}
}

func TestSolidCSG(t *testing.T) {
	m := evaluate(t, NewEngine(sdfx.New()), `
(def body (union
  (box :size (vec3 10 10 10))
  (box :size (vec3 10 10 10) :at (vec3 5 0 0))))
(solid (difference body (cylinder :height 20 :radius 2 :at (vec3 5 5 -5))) :cells 12)
`)
	if len(m.Input.Faces) == 0 {
		t.Fatal("expected faces from the tessellated solid")
	}
}

func TestSolidErrors(t *testing.T) {
	eng := NewEngine(sdfx.New())
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"not a solid", `(solid 3)`, "expected solid"},
		{"union of one", `(union (box))`, "at least 2"},
		{"flat box", `(box :size (vec3 1 0 1))`, "must be positive"},
		{"bad cylinder", `(cylinder :radius -1)`, "must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg := evalError(t, eng, tt.source); !strings.Contains(msg, tt.want) {
				t.Errorf("error %q should contain %q", msg, tt.want)
			}
		})
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	m := evaluate(t, NewEngine(nil), `
(def w 10)
(vertex (* w 2) (+ w 1) 0)
`)
	if v := m.Input.Vertices[0]; v.X != 20 || v.Y != 11 {
		t.Errorf("vertex = %v, want (20, 11, 0)", v)
	}
}
