package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/papercut/pkg/geom"
	"github.com/chazu/papercut/pkg/unfold"
)

const cubeModel = `
;; a 40 mm cube
(def s 40)
(vertex 0 0 0)
(vertex s 0 0)
(vertex 0 s 0)
(vertex s s 0)
(vertex 0 0 s)
(vertex s 0 s)
(vertex 0 s s)
(vertex s s s)
(face 0 2 3 1) ; bottom
(face 4 5 7 6) ; top
(face 0 1 5 4)
(face 2 6 7 3)
(face 0 4 6 2)
(face 1 3 7 5)
`

// writeModel stores source as cube.lisp in a fresh directory.
func writeModel(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cube.lisp")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

// run executes the command line and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func readFile(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	return string(data)
}

func TestUnfoldWritesPages(t *testing.T) {
	model := writeModel(t, cubeModel)
	dir := filepath.Dir(model)
	gj := filepath.Join(dir, "net.geojson")
	uv := filepath.Join(dir, "net.uv")

	_, err := run(t, "unfold", model, "-o", filepath.Join(dir, "net"), "--geojson", gj, "--uv", uv)
	require.NoError(t, err)

	svg := readFile(t, filepath.Join(dir, "net_page1.svg"))
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, `width="210.000mm"`)
	assert.Contains(t, svg, `class="outer"`)

	assert.Contains(t, readFile(t, gj), "FeatureCollection")
	assert.True(t, strings.HasPrefix(readFile(t, uv), "# face corner u v page"))
}

func TestUnfoldDefaultPrefix(t *testing.T) {
	model := writeModel(t, cubeModel)
	_, err := run(t, "unfold", model)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(filepath.Dir(model), "cube_page1.svg"))
}

func TestUnfoldConfigFile(t *testing.T) {
	model := writeModel(t, cubeModel)
	dir := filepath.Dir(model)
	cfg := filepath.Join(dir, "papercut.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("stickers: true\npage: a5\n"), 0o644))

	_, err := run(t, "unfold", model, "--config", cfg)
	require.NoError(t, err)

	svg := readFile(t, filepath.Join(dir, "cube_page1.svg"))
	assert.Contains(t, svg, `width="148.000mm"`)
	assert.Contains(t, svg, `class="sticker"`)
}

func TestUnfoldEnvironment(t *testing.T) {
	t.Setenv("PAPERCUT_PAGE", "100x150")
	model := writeModel(t, cubeModel)
	_, err := run(t, "unfold", model)
	require.NoError(t, err)

	svg := readFile(t, filepath.Join(filepath.Dir(model), "cube_page1.svg"))
	assert.Contains(t, svg, `width="100.000mm"`)
}

func TestUnfoldModelFromDSLOptions(t *testing.T) {
	model := writeModel(t, cubeModel+"(page :width 120 :height 180 :margin 5)\n")
	_, err := run(t, "unfold", model)
	require.NoError(t, err)

	svg := readFile(t, filepath.Join(filepath.Dir(model), "cube_page1.svg"))
	assert.Contains(t, svg, `width="120.000mm"`)
}

func TestUnfoldErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		args   []string
		want   string
	}{
		{"model error", cubeModel + "(face 0 1 9)", nil, "1 errors"},
		{"bad page", cubeModel, []string{"--page", "huge"}, "expected a name"},
		{"margin too wide", cubeModel, []string{"--page", "a5", "--margin", "80"}, "no printable area"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := writeModel(t, tt.source)
			_, err := run(t, append([]string{"unfold", model}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestUnfoldMissingFile(t *testing.T) {
	_, err := run(t, "unfold", filepath.Join(t.TempDir(), "missing.lisp"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading model")
}

func TestCheck(t *testing.T) {
	model := writeModel(t, cubeModel)
	out, err := run(t, "check", model, "--page", "a4")
	require.NoError(t, err)
	assert.Contains(t, out, "vertices: 8")
	assert.Contains(t, out, "faces:    6")
	assert.Contains(t, out, "edges:    12")
	assert.Contains(t, out, "pages:    1")
}

func TestCheckWithoutPage(t *testing.T) {
	model := writeModel(t, cubeModel)
	out, err := run(t, "check", model)
	require.NoError(t, err)
	assert.Contains(t, out, "islands:  1")
	assert.NotContains(t, out, "pages:")
}

func TestCheckInvalidMesh(t *testing.T) {
	model := writeModel(t, cubeModel+"(face 0 1 1 2)\n")
	_, err := run(t, "check", model)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mesh errors")
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		in   string
		want geom.Vec
		err  bool
	}{
		{in: "a4", want: unfold.A4},
		{in: " Letter ", want: geom.Vec{X: 215.9, Y: 279.4}},
		{in: "100x150", want: geom.Vec{X: 100, Y: 150}},
		{in: "100 x 150.5", want: geom.Vec{X: 100, Y: 150.5}},
		{in: "0x150", err: true},
		{in: "wide", err: true},
		{in: "10xtall", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePage(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyOptions(t *testing.T) {
	conf := viper.New()
	conf.Set("scale", 2)
	conf.Set("stickers", true)
	conf.Set("page", "a5")
	conf.Set("convex", 3)

	o := unfold.DefaultOptions()
	o.Margin = 7
	require.NoError(t, applyOptions(conf, &o))
	assert.Equal(t, 2.0, o.Scale)
	assert.True(t, o.Stickers)
	assert.Equal(t, geom.Vec{X: 148, Y: 210}, *o.PageSize)
	assert.Equal(t, 3.0, o.Weights.Convex)
	assert.Equal(t, 7.0, o.Margin, "unset keys keep their value")

	conf.Set("scale", 0)
	assert.Error(t, applyOptions(conf, &o))
}

func TestExamples(t *testing.T) {
	models, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.lisp"))
	require.NoError(t, err)
	require.NotEmpty(t, models)
	for _, model := range models {
		t.Run(filepath.Base(model), func(t *testing.T) {
			out, err := run(t, "check", model)
			require.NoError(t, err)
			assert.Contains(t, out, "pages:")
		})
	}
}
