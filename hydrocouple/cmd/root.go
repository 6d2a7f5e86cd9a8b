// Package cmd provides the command-line interface of hydrocouple.
package cmd

import (
	"os"

	"github.com/sarchlab/hydrocouple/backend"
	"github.com/sarchlab/hydrocouple/components/surfacelayer/dummy"
	"github.com/sarchlab/hydrocouple/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	envFiles []string
	cfg      *config.Config
	logger   *logrus.Logger
}

func (a *app) load() error {
	cfg, err := config.Load(a.envFiles...)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cfg.Logger()

	return nil
}

// registry links the example routines in and looks for plugins in the
// configured backend directory.
func (a *app) registry() *backend.Registry {
	static := backend.NewStaticResolver()
	dummy.Register(static)

	resolver := backend.ChainResolver{
		static,
		backend.PluginResolver{Dir: a.cfg.BackendDir},
	}

	return backend.NewRegistry(resolver).WithLogger(a.logger)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "hydrocouple",
		Short: "Hydrocouple describes, checks, and runs coupled hydrological components.",
		Long: `Hydrocouple describes, checks, and runs coupled hydrological ` +
			`components. Settings are read from HYDROCOUPLE_* environment ` +
			`variables and from an optional .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.load()
		},
	}

	rootCmd.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil,
		"Read settings from these files instead of ./.env")

	rootCmd.AddCommand(
		newDescribeCmd(a),
		newBackendsCmd(a),
		newRunCmd(a),
		newInspectCmd(a),
	)

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
