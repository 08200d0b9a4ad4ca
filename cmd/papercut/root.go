package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chazu/papercut/pkg/engine"
	"github.com/chazu/papercut/pkg/kernel/sdfx"
	"github.com/chazu/papercut/pkg/unfold"
)

// EnvPrefix prefixes the environment variables read for every flag,
// e.g. PAPERCUT_STICKER_WIDTH.
const EnvPrefix = "PAPERCUT"

// app is the state shared by the subcommands.
type app struct {
	conf   *viper.Viper
	log    *zap.Logger
	engine *engine.Engine
}

func newRootCmd() *cobra.Command {
	a := &app{
		conf:   viper.New(),
		engine: engine.NewEngine(sdfx.New()),
	}
	root := &cobra.Command{
		Use:   "papercut",
		Short: "Unfold polyhedral models into printable paper nets",
		Long: `
papercut reads a model file, cuts the mesh into islands that lie flat
without overlapping, decorates the cut edges with glue tabs and numbers,
and packs the islands onto printable pages.
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	pf := root.PersistentFlags()
	pf.String("config", "",
		"Configuration file. Takes precedence over the model file, but is "+
			"overridden by environment variables and flags.")
	pf.BoolP("verbose", "v", false, "Log debug output of the unfolder.")

	root.AddCommand(newUnfoldCmd(a), newCheckCmd(a))
	return root
}

// setup binds the flags of the running command, reads the config file and
// builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.conf.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "binding flags")
	}
	a.conf.SetEnvPrefix(EnvPrefix)
	a.conf.AutomaticEnv()
	if cfg := a.conf.GetString("config"); cfg != "" {
		a.conf.SetConfigFile(cfg)
		if err := a.conf.ReadInConfig(); err != nil {
			return errors.Wrap(err, "reading config")
		}
	}

	var err error
	if a.conf.GetBool("verbose") {
		a.log, err = zap.NewDevelopment()
	} else {
		a.log, err = zap.NewProduction()
	}
	if err != nil {
		return errors.Wrap(err, "creating logger")
	}
	unfold.SetLogger(a.log.Named("unfold"))
	return nil
}

// load evaluates the model file at path. Evaluation errors are logged one
// by one and reported as a single error.
func (a *app) load(ctx context.Context, path string) (*engine.Model, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading model")
	}
	m, evalErrs, err := a.engine.Evaluate(ctx, string(src))
	if err != nil {
		return nil, errors.Wrapf(err, "evaluating %s", path)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			a.log.Error("model error", zap.String("file", path), zap.Int("line", e.Line), zap.String("error", e.Message))
		}
		return nil, errors.Errorf("%s: %d errors, first: %s", path, len(evalErrs), evalErrs[0].Error())
	}
	return m, nil
}
