package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/papercut/pkg/export"
	"github.com/chazu/papercut/pkg/unfold"
)

func newUnfoldCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unfold <model.lisp>",
		Short: "Unfold a model and write its net as SVG pages",
		Long: `
Unfold writes one SVG file per page, named PREFIX_pageN.svg. Without a
page size the net is packed onto A4.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.unfold(cmd, args[0])
		},
	}
	addOptionFlags(cmd)
	f := cmd.Flags()
	f.StringP("output", "o", "", "Output prefix. Defaults to the model path without extension.")
	f.String("geojson", "", "Also write the net as GeoJSON to this file.")
	f.String("uv", "", "Also write the UV coordinate table to this file.")
	f.Int("decimals", 3, "Decimal places of SVG coordinates.")
	return cmd
}

func (a *app) unfold(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	m, err := a.load(ctx, path)
	if err != nil {
		return err
	}
	opts := m.Options
	if err := applyOptions(a.conf, &opts); err != nil {
		return err
	}
	if opts.PageSize == nil {
		page := unfold.A4
		opts.PageSize = &page
	}

	n, err := unfold.FromInput(ctx, m.Input, opts)
	if err != nil {
		return err
	}
	pages, err := export.RenderPages(ctx, n, export.SVGOptions{
		PageSize: *opts.PageSize,
		Margin:   opts.Margin,
		Decimals: a.conf.GetInt("decimals"),
	})
	if err != nil {
		return err
	}

	prefix := a.conf.GetString("output")
	if prefix == "" {
		prefix = strings.TrimSuffix(path, filepath.Ext(path))
	}
	for i, page := range pages {
		name := export.PageFileName(prefix, i+1)
		if err := os.WriteFile(name, page, 0o644); err != nil {
			return errors.Wrap(err, "writing page")
		}
		a.log.Info("wrote page", zap.String("file", name), zap.Int("islands", len(n.Pages()[i].Islands)))
	}

	if name := a.conf.GetString("geojson"); name != "" {
		data, err := export.GeoJSON(n)
		if err != nil {
			return err
		}
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return errors.Wrap(err, "writing geojson")
		}
		a.log.Info("wrote geojson", zap.String("file", name))
	}
	if name := a.conf.GetString("uv"); name != "" {
		if err := writeFile(name, func(f *os.File) error { return export.WriteUVTable(f, n) }); err != nil {
			return errors.Wrap(err, "writing uv table")
		}
		a.log.Info("wrote uv table", zap.String("file", name))
	}
	return nil
}

// writeFile creates name and fills it with fill.
func writeFile(name string, fill func(f *os.File) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
