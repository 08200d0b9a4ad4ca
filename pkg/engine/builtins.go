package engine

import (
	"context"
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/pkg/errors"

	"github.com/chazu/papercut/pkg/geom"
	"github.com/chazu/papercut/pkg/kernel"
	"github.com/chazu/papercut/pkg/mesh"
	"github.com/chazu/papercut/pkg/tessellate"
	"github.com/chazu/papercut/pkg/unfold"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a geom.Vec3.
type sexpVec3 struct {
	vec geom.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps a kernel solid until it is tessellated with (solid ...).
type sexpSolid struct {
	solid kernel.Solid
	desc  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return "(" + s.desc + ")"
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		switch {
		case !ok:
			result.positional = append(result.positional, args[i])
		case i+1 < len(args):
			result.kw[name] = args[i+1]
			i++
		default:
			// Trailing keyword without a value.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// float reads keyword name into dst if present.
func (a kwArgs) float(fn, name string, dst *float64) error {
	v, ok := a.kw[name]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return errors.Wrapf(err, "%s: %s", fn, name)
	}
	*dst = f
	return nil
}

func (a kwArgs) bool(fn, name string, dst *bool) error {
	v, ok := a.kw[name]
	if !ok {
		return nil
	}
	b, err := toBool(v)
	if err != nil {
		return errors.Wrapf(err, "%s: %s", fn, name)
	}
	*dst = b
	return nil
}

func (a kwArgs) vec3(fn, name string, dst *geom.Vec3) error {
	v, ok := a.kw[name]
	if !ok {
		return nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return errors.Wrapf(err, "%s: %s", fn, name)
	}
	*dst = vec
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, errors.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, errors.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toBool(s zygo.Sexp) (bool, error) {
	if v, ok := s.(*zygo.SexpBool); ok {
		return v.Val, nil
	}
	return false, errors.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (geom.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec3{}, errors.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toSolid(s zygo.Sexp) (*sexpSolid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v, nil
	}
	return nil, errors.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, errors.Errorf("expected list or array, got %T", s)
}

// indices reads vertex indices given either inline or as one list.
func indices(args []zygo.Sexp) ([]int, error) {
	if len(args) == 1 {
		if items, err := sexpListToSlice(args[0]); err == nil {
			args = items
		}
	}
	out := make([]int, len(args))
	for i, a := range args {
		v, err := toInt(a)
		if err != nil {
			return nil, errors.Wrapf(err, "index %d", i)
		}
		out[i] = v
	}
	return out, nil
}

func intSexp(i int) zygo.Sexp {
	return &zygo.SexpInt{Val: int64(i)}
}

// ---------------------------------------------------------------------------
// Model builder
// ---------------------------------------------------------------------------

// builder accumulates the model while the source runs.
type builder struct {
	ctx    context.Context
	kernel kernel.Kernel
	model  *Model
	edges  map[[2]int]int // index into model.Input.Edges
}

func newBuilder(ctx context.Context, k kernel.Kernel, m *Model) *builder {
	return &builder{ctx: ctx, kernel: k, model: m, edges: make(map[[2]int]int)}
}

func (b *builder) checkVertex(fn string, v int) error {
	if v < 0 || v >= len(b.model.Input.Vertices) {
		return errors.Errorf("%s: no vertex %d, the model has %d", fn, v, len(b.model.Input.Vertices))
	}
	return nil
}

// edge returns the explicit edge between a and c, adding it if needed.
func (b *builder) edge(fn string, args []zygo.Sexp) (*mesh.EdgeSpec, error) {
	ends, err := indices(args)
	if err != nil {
		return nil, errors.Wrap(err, fn)
	}
	if len(ends) != 2 {
		return nil, errors.Errorf("%s requires exactly 2 vertices, got %d", fn, len(ends))
	}
	a, c := ends[0], ends[1]
	for _, v := range ends {
		if err := b.checkVertex(fn, v); err != nil {
			return nil, err
		}
	}
	if a == c {
		return nil, errors.Errorf("%s: vertex %d cannot be joined to itself", fn, a)
	}
	key := [2]int{min(a, c), max(a, c)}
	i, ok := b.edges[key]
	if !ok {
		i = len(b.model.Input.Edges)
		b.model.Input.Edges = append(b.model.Input.Edges, mesh.EdgeSpec{A: a, B: c})
		b.edges[key] = i
	}
	return &b.model.Input.Edges[i], nil
}

// place applies the :rotate and :at keywords to a new solid.
func (b *builder) place(fn string, pa kwArgs, s kernel.Solid) (kernel.Solid, error) {
	var rot, at geom.Vec3
	if err := pa.vec3(fn, "rotate", &rot); err != nil {
		return nil, err
	}
	if err := pa.vec3(fn, "at", &at); err != nil {
		return nil, err
	}
	if rot != (geom.Vec3{}) {
		s = b.kernel.Rotate(s, rot.X, rot.Y, rot.Z)
	}
	if at != (geom.Vec3{}) {
		s = b.kernel.Translate(s, at)
	}
	return s, nil
}

func (b *builder) needKernel(fn string) error {
	if b.kernel == nil {
		return errors.Errorf("%s: no geometry kernel configured", fn)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the model builtins into a zygomys environment.
// They fill b.model during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	in := &b.model.Input
	opts := &b.model.Options

	// (vertex x y z) or (vertex (vec3 x y z)) -> index
	env.AddFunction("vertex", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var co geom.Vec3
		switch len(args) {
		case 1:
			v, err := toVec3(args[0])
			if err != nil {
				return zygo.SexpNull, errors.Wrap(err, "vertex")
			}
			co = v
		case 3:
			var xyz [3]float64
			for i, a := range args {
				f, err := toFloat64(a)
				if err != nil {
					return zygo.SexpNull, errors.Wrapf(err, "vertex: %c", "xyz"[i])
				}
				xyz[i] = f
			}
			co = geom.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}
		default:
			return zygo.SexpNull, errors.Errorf("vertex requires 3 coordinates or a vec3, got %d arguments", len(args))
		}
		in.Vertices = append(in.Vertices, co)
		return intSexp(len(in.Vertices) - 1), nil
	})

	// (face 0 1 2 3) or (face (list 0 1 2 3)) -> index
	env.AddFunction("face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		loop, err := indices(args)
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, "face")
		}
		if len(loop) < 3 {
			return zygo.SexpNull, errors.Errorf("face requires at least 3 vertices, got %d", len(loop))
		}
		for _, v := range loop {
			if err := b.checkVertex("face", v); err != nil {
				return zygo.SexpNull, err
			}
		}
		in.Faces = append(in.Faces, loop)
		return intSexp(len(in.Faces) - 1), nil
	})

	// (seam 4 5)
	env.AddFunction("seam", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		e, err := b.edge("seam", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		e.ForceCut = true
		return zygo.SexpNull, nil
	})

	// (highlight 4 5)
	env.AddFunction("highlight", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		e, err := b.edge("highlight", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		e.Highlight = true
		return zygo.SexpNull, nil
	})

	// (priority :convex 0.5 :concave 1 :length -0.05)
	env.AddFunction("priority", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		for kw, dst := range map[string]*float64{
			"convex":  &opts.Weights.Convex,
			"concave": &opts.Weights.Concave,
			"length":  &opts.Weights.Length,
		} {
			if err := pa.float("priority", kw, dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		return zygo.SexpNull, nil
	})

	// (page :width 210 :height 297 :margin 10 :limit true)
	env.AddFunction("page", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		size := unfold.A4
		if opts.PageSize != nil {
			size = *opts.PageSize
		}
		if err := pa.float("page", "width", &size.X); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.float("page", "height", &size.Y); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.float("page", "margin", &opts.Margin); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.bool("page", "limit", &opts.LimitByPage); err != nil {
			return zygo.SexpNull, err
		}
		if !(size.X > 0 && size.Y > 0) {
			return zygo.SexpNull, errors.Errorf("page: size %gx%g must be positive", size.X, size.Y)
		}
		opts.PageSize = &size
		return zygo.SexpNull, nil
	})

	// (stickers :width 5 :numbers true)
	env.AddFunction("stickers", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		opts.Stickers = true
		if err := pa.float("stickers", "width", &opts.StickerWidth); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.bool("stickers", "numbers", &opts.Numbers); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.bool("stickers", "enabled", &opts.Stickers); err != nil {
			return zygo.SexpNull, err
		}
		return zygo.SexpNull, nil
	})

	// (scale 10)
	env.AddFunction("scale", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, errors.Errorf("scale requires exactly 1 argument, got %d", len(args))
		}
		s, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, "scale")
		}
		if !(s > 0) {
			return zygo.SexpNull, errors.Errorf("scale: %g must be positive", s)
		}
		opts.Scale = s
		return zygo.SexpNull, nil
	})

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, errors.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, errors.Wrapf(err, "vec3: %c", "xyz"[i])
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: geom.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// (box :size (vec3 10 20 30) :at (vec3 0 0 0) :rotate (vec3 0 0 45))
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := b.needKernel("box"); err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		size := geom.Vec3{X: 1, Y: 1, Z: 1}
		if err := pa.vec3("box", "size", &size); err != nil {
			return zygo.SexpNull, err
		}
		if !(size.X > 0 && size.Y > 0 && size.Z > 0) {
			return zygo.SexpNull, errors.Errorf("box: size %v must be positive", size)
		}
		s, err := b.place("box", pa, b.kernel.Box(size))
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{solid: s, desc: fmt.Sprintf("box %gx%gx%g", size.X, size.Y, size.Z)}, nil
	})

	// (cylinder :height 20 :radius 5 :at (vec3 0 0 0))
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := b.needKernel("cylinder"); err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		height, radius := 1.0, 0.5
		if err := pa.float("cylinder", "height", &height); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.float("cylinder", "radius", &radius); err != nil {
			return zygo.SexpNull, err
		}
		if !(height > 0 && radius > 0) {
			return zygo.SexpNull, errors.Errorf("cylinder: height %g and radius %g must be positive", height, radius)
		}
		s, err := b.place("cylinder", pa, b.kernel.Cylinder(height, radius))
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{solid: s, desc: fmt.Sprintf("cylinder %gx%g", height, radius)}, nil
	})

	// (union a b ...) and (difference a b ...)
	for fn, op := range map[string]func(a, c kernel.Solid) kernel.Solid{
		"union":      func(a, c kernel.Solid) kernel.Solid { return b.kernel.Union(a, c) },
		"difference": func(a, c kernel.Solid) kernel.Solid { return b.kernel.Difference(a, c) },
	} {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := b.needKernel(fn); err != nil {
				return zygo.SexpNull, err
			}
			if len(args) < 2 {
				return zygo.SexpNull, errors.Errorf("%s requires at least 2 solids, got %d", fn, len(args))
			}
			acc, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, errors.Wrap(err, fn)
			}
			out := &sexpSolid{solid: acc.solid, desc: fn + " " + acc.desc}
			for _, a := range args[1:] {
				s, err := toSolid(a)
				if err != nil {
					return zygo.SexpNull, errors.Wrap(err, fn)
				}
				out.solid = op(out.solid, s.solid)
			}
			return out, nil
		})
	}

	// (solid s :cells 16) tessellates s into the model -> first face index
	env.AddFunction("solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := b.needKernel("solid"); err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, errors.Errorf("solid requires exactly 1 solid, got %d", len(pa.positional))
		}
		s, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, "solid")
		}
		cells := 0.0
		if err := pa.float("solid", "cells", &cells); err != nil {
			return zygo.SexpNull, err
		}
		part, err := tessellate.Solid(b.ctx, b.kernel, s.solid, int(cells))
		if err != nil {
			return zygo.SexpNull, errors.Wrapf(err, "solid: %s", s.desc)
		}
		return intSexp(tessellate.Append(in, part)), nil
	})
}
