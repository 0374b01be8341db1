package main

import (
	"github.com/spf13/cobra"

	"github.com/3-lines-studio/hydrate/internal/initcmd"
)

func newInitCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a new project with one page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return initcmd.Run(e.output, dir)
		},
	}
}
