package main

import (
	"errors"
	"os"

	"github.com/3-lines-studio/hydrate/internal/adapters/cli"
)

func main() {
	e := &env{
		output:   cli.NewOutput(),
		stdout:   os.Stdout,
		lookPath: execLookPath,
	}
	if err := newRootCmd(e).Execute(); err != nil {
		if !errors.Is(err, errReported) {
			e.output.PrintError("%v", err)
		}
		os.Exit(1)
	}
}
