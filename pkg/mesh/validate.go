package mesh

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/chazu/papercut/pkg/geom"
)

// Severity indicates whether a validation finding blocks the unfold or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks unfolding
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding. Face, Edge and
// Vertex are -1 when the finding does not concern such an element.
type ValidationError struct {
	Face     int
	Edge     int
	Vertex   int
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	var where []string
	if e.Face >= 0 {
		where = append(where, fmt.Sprintf("face %d", e.Face))
	}
	if e.Edge >= 0 {
		where = append(where, fmt.Sprintf("edge %d", e.Edge))
	}
	if e.Vertex >= 0 {
		where = append(where, fmt.Sprintf("vertex %d", e.Vertex))
	}
	if len(where) == 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, strings.Join(where, " "), e.Message)
}

func faceError(face int, format string, args ...any) ValidationError {
	return ValidationError{Face: face, Edge: -1, Vertex: -1, Message: fmt.Sprintf(format, args...)}
}

func edgeError(edge int, format string, args ...any) ValidationError {
	return ValidationError{Face: -1, Edge: edge, Vertex: -1, Message: fmt.Sprintf(format, args...)}
}

func vertexError(vertex int, format string, args ...any) ValidationError {
	return ValidationError{Face: -1, Edge: -1, Vertex: vertex, Message: fmt.Sprintf(format, args...)}
}

// ValidationResult bundles blocking errors and advisory warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// InvalidInputError is returned by Build for a malformed mesh. It lists every
// structural problem found so the caller can fix the model in one go.
type InvalidInputError struct {
	Errors []ValidationError
}

func (e *InvalidInputError) Error() string {
	if len(e.Errors) == 1 {
		return "invalid mesh: " + e.Errors[0].Error()
	}
	return fmt.Sprintf("invalid mesh: %d problems, first: %s", len(e.Errors), e.Errors[0].Error())
}

// Validate runs the structural checks (tier 1) and the geometric advisories
// (tier 2) on an input mesh. It never mutates the input.
func Validate(in Input) ValidationResult {
	var result ValidationResult
	result.Errors = append(result.Errors, validateVertices(in)...)
	result.Errors = append(result.Errors, validateFaces(in)...)
	result.Errors = append(result.Errors, validateEdges(in)...)
	if len(result.Errors) == 0 {
		result.Warnings = validateGeometry(in)
	}
	return result
}

func validateVertices(in Input) []ValidationError {
	var errs []ValidationError
	for i, v := range in.Vertices {
		if !geom.Finite(v) {
			errs = append(errs, vertexError(i, "non-finite coordinate %v", v))
		}
	}
	return errs
}

func validateFaces(in Input) []ValidationError {
	var errs []ValidationError
	for i, face := range in.Faces {
		if len(face) < 3 {
			errs = append(errs, faceError(i, "has %d vertices, need at least 3", len(face)))
			continue
		}
		seen := make(map[int]bool, len(face))
		for _, v := range face {
			if v < 0 || v >= len(in.Vertices) {
				errs = append(errs, faceError(i, "references vertex %d, mesh has %d", v, len(in.Vertices)))
				continue
			}
			if seen[v] {
				errs = append(errs, faceError(i, "uses vertex %d more than once", v))
			}
			seen[v] = true
		}
	}
	return errs
}

func validateEdges(in Input) []ValidationError {
	var errs []ValidationError
	seen := make(map[[2]int]int, len(in.Edges))
	for i, e := range in.Edges {
		if e.A < 0 || e.A >= len(in.Vertices) || e.B < 0 || e.B >= len(in.Vertices) {
			errs = append(errs, edgeError(i, "references vertices (%d, %d), mesh has %d", e.A, e.B, len(in.Vertices)))
			continue
		}
		if e.A == e.B {
			errs = append(errs, edgeError(i, "connects vertex %d to itself", e.A))
			continue
		}
		k := edgeKey(e.A, e.B)
		if prev, ok := seen[k]; ok {
			errs = append(errs, edgeError(i, "duplicates edge %d", prev))
			continue
		}
		seen[k] = i
	}
	return errs
}

// validateGeometry reports twisted n-gons, zero-area faces and
// non-manifold edges. Input must already be structurally valid.
func validateGeometry(in Input) []ValidationError {
	var warnings []ValidationError
	sides := make(map[[2]int]int)
	for i, face := range in.Faces {
		co := make([]geom.Vec3, len(face))
		for j, v := range face {
			co[j] = in.Vertices[v]
		}
		normal, area := newellNormal(co)
		if area == 0 {
			w := faceError(i, "has zero area")
			w.Severity = SeverityWarning
			warnings = append(warnings, w)
		} else if isTwisted(co, geom.Normalize3(normal)) {
			w := faceError(i, "is not planar")
			w.Severity = SeverityWarning
			warnings = append(warnings, w)
		}
		for j := range face {
			sides[edgeKey(face[j], face[(j+1)%len(face)])]++
		}
	}
	keys := lo.Keys(sides)
	slices.SortFunc(keys, func(a, b [2]int) int {
		return cmp.Or(cmp.Compare(a[0], b[0]), cmp.Compare(a[1], b[1]))
	})
	for _, k := range keys {
		if n := sides[k]; n > 2 {
			w := ValidationError{Face: -1, Edge: -1, Vertex: k[0], Severity: SeverityWarning,
				Message: fmt.Sprintf("edge to vertex %d is shared by %d faces", k[1], n)}
			warnings = append(warnings, w)
		}
	}
	return warnings
}

// isTwisted reports whether an n-gon deviates from its plane by more than
// 1% of its diameter.
func isTwisted(co []geom.Vec3, normal geom.Vec3) bool {
	if len(co) <= 3 {
		return false
	}
	var center geom.Vec3
	for _, c := range co {
		center = center.Add(c)
	}
	center = center.MulScalar(1 / float64(len(co)))
	planeD := center.Dot(normal)
	diameter := 0.0
	for _, c := range co {
		diameter = math.Max(diameter, center.Sub(c).Length())
	}
	for _, c := range co {
		if math.Abs(c.Dot(normal)-planeD) > diameter*0.01 {
			return true
		}
	}
	return false
}
