package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var versionColor = color.New(color.FgYellow, color.Bold)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadRuntime(cmd); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "macrostorm %s\n", versionColor.Sprint(version))
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Built: %s\n", date)
			return nil
		},
	}
}
