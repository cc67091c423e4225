package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/macrostorm/internal/expand/funcs"
)

func newFuncsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "funcs",
		Short: "List the registered macro functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}

			active := make(map[string]bool)
			for _, name := range rt.functionNames("", false) {
				active[name] = true
			}

			name := color.New(color.Bold)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, info := range funcs.Functions() {
				mark := " "
				if active[info.Name] {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s %s\t%s\t%s\n", mark, name.Sprint(info.Name), info.Syntax, info.Description)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\n* used by 'macrostorm expand' with the current configuration")
			return nil
		},
	}
}
