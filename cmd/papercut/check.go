package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/chazu/papercut/pkg/mesh"
	"github.com/chazu/papercut/pkg/unfold"
)

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <model.lisp>",
		Short: "Validate a model and print statistics about its net",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.check(cmd, args[0])
		},
	}
	addOptionFlags(cmd)
	return cmd
}

func (a *app) check(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	m, err := a.load(ctx, path)
	if err != nil {
		return err
	}
	opts := m.Options
	if err := applyOptions(a.conf, &opts); err != nil {
		return err
	}

	res := mesh.Validate(m.Input)
	for _, w := range res.Warnings {
		fmt.Fprintln(out, w.Error())
	}
	for _, e := range res.Errors {
		fmt.Fprintln(out, e.Error())
	}
	if !res.OK() {
		return errors.Errorf("%s: %d mesh errors", path, len(res.Errors))
	}

	msh, err := mesh.Build(ctx, m.Input)
	if err != nil {
		return err
	}
	n, err := unfold.Unfold(ctx, msh, opts)
	if err != nil {
		return errors.WithMessage(err, "unfold")
	}
	fmt.Fprintf(out, "vertices: %d\n", len(msh.Vertices))
	fmt.Fprintf(out, "faces:    %d\n", len(msh.Faces))
	fmt.Fprintf(out, "edges:    %d\n", len(msh.Edges))
	fmt.Fprintf(out, "seams:    %d\n", len(n.SeamEdges()))
	fmt.Fprintf(out, "islands:  %d\n", len(n.Islands()))
	if _, ok := n.Printable(); ok {
		fmt.Fprintf(out, "pages:    %d\n", len(n.Pages()))
	}
	return nil
}
