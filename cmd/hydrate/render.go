package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newRenderCmd(e *env, root *rootOptions) *cobra.Command {
	var propsJSON string

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a page and print the HTML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			props := map[string]any{}
			if propsJSON != "" {
				if err := json.Unmarshal([]byte(propsJSON), &props); err != nil {
					return fmt.Errorf("invalid --props: %w", err)
				}
			}

			app, err := root.open(e)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			html, err := app.Render(cmd.Context(), args[0], props)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), html)
			return err
		},
	}
	cmd.Flags().StringVarP(&propsJSON, "props", "p", "", "props as a JSON object")
	return cmd
}
