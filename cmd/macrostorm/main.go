// Package main is the entry point for the macrostorm command.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "macrostorm",
		Short: "Expand @macro() tokens in text",
		Long: `macrostorm rewrites text by replacing tokens such as @sel(), @text(),
@timestamp(yyyy-MM-dd, en), @expr(1 + 2), @upper(s), @urlEncode(s) and
@getUrl(url) with their computed values.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "path to config file (default $XDG_CONFIG_HOME/macrostorm/config.toml)")
	root.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().Bool("timings", false, "show per-pass timing information")

	root.AddCommand(newExpandCmd())
	root.AddCommand(newFuncsCmd())
	root.AddCommand(newScriptCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())
	return root
}

var errorColor = color.New(color.FgRed, color.Bold)

func printError(w io.Writer, err error) {
	errorColor.Fprint(w, "error:")
	fmt.Fprintf(w, " %v\n", err)
}
