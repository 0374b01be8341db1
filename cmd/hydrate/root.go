package main

import (
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/3-lines-studio/hydrate"
	"github.com/3-lines-studio/hydrate/internal/adapters/cli"
)

const defaultConfigFile = "hydrate.yaml"

// errReported is returned by commands that already printed their failure.
var errReported = errors.New("reported")

var execLookPath = exec.LookPath

type env struct {
	output *cli.Output
	stdout io.Writer
	// options are passed to every hydrate.New call.
	options  []hydrate.Option
	lookPath func(string) (string, error)
}

type rootOptions struct {
	configFile string
}

func newRootCmd(e *env) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "hydrate",
		Short:         "Server-render component pages and build their hydration bundles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(e.stdout)
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "",
		"config file (defaults to "+defaultConfigFile+" when present)")

	cmd.AddCommand(
		newRenderCmd(e, opts),
		newServeCmd(e, opts),
		newBuildCmd(e, opts),
		newCacheCmd(e, opts),
		newDoctorCmd(e, opts),
		newInitCmd(e),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (*hydrate.Config, error) {
	file := o.configFile
	if file == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			file = defaultConfigFile
		}
	}
	return hydrate.LoadConfig(file)
}

func (o *rootOptions) open(e *env) (*hydrate.Hydrate, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return hydrate.New(*cfg, e.options...)
}
