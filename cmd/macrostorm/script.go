package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/macrostorm/internal/host"
	"github.com/dshills/macrostorm/internal/plugin/lua"
)

type scriptOptions struct {
	selStart   int
	selEnd     int
	allowNet   bool
	allowWrite bool
	write      bool
	funcs      string
	regex      bool
	watch      bool
}

func newScriptCmd() *cobra.Command {
	opts := &scriptOptions{}
	cmd := &cobra.Command{
		Use:   "script <file.lua> [buffer]",
		Short: "Run a Lua script with the ks.macro module",
		Long: `Run a Lua script in a sandbox. The script reaches the buffer and the
expansion engine through require("ks.macro"). Fetching and modifying the
buffer must be allowed explicitly.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, args, opts)
		},
	}

	cmd.Flags().IntVar(&opts.selStart, "sel-start", -1, "initial selection start byte offset")
	cmd.Flags().IntVar(&opts.selEnd, "sel-end", -1, "initial selection end byte offset")
	cmd.Flags().BoolVar(&opts.allowNet, "allow-net", false, "let @getUrl() fetch")
	cmd.Flags().BoolVar(&opts.allowWrite, "allow-write", false, "let the script modify the buffer")
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write the buffer back to its file afterwards")
	cmd.Flags().StringVar(&opts.funcs, "funcs", "", "comma separated function order")
	cmd.Flags().BoolVar(&opts.regex, "regex", false, "quote @sel() as a literal regular expression")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "run again whenever the script or buffer changes")
	return cmd
}

func runScript(cmd *cobra.Command, args []string, opts *scriptOptions) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	if opts.write && len(args) < 2 {
		return errors.New("--write needs a buffer file")
	}

	if !opts.watch {
		return scriptOnce(cmd, rt, args, opts)
	}
	// A buffer the script writes back is not watched, or each run would
	// trigger the next.
	files := args[:1]
	if !opts.write {
		files = args
	}
	return rt.watch(cmd, files, func() error {
		return scriptOnce(cmd, rt, args, opts)
	})
}

// scriptOnce runs the script against a fresh state and document.
func scriptOnce(cmd *cobra.Command, rt *cliRuntime, args []string, opts *scriptOptions) error {
	doc := host.NewDocument("")
	if len(args) == 2 {
		path, text, err := readBuffer(nil, args[1:])
		if err != nil {
			return err
		}
		doc = host.NewFileDocument(path, text)
	}
	if err := applySelection(doc, opts.selStart, opts.selEnd); err != nil {
		return err
	}

	env, err := rt.funcEnv(doc)
	if err != nil {
		return err
	}

	state, err := lua.NewState(
		lua.WithExecutionTimeout(rt.cfg.Lua.Timeout.Duration),
		lua.WithCallLimit(rt.cfg.Lua.CallLimit),
		lua.WithOutput(cmd.OutOrStdout()),
	)
	if err != nil {
		return err
	}
	defer state.Close()

	if opts.allowNet {
		state.Sandbox().Grant(lua.CapabilityNetwork)
	}
	if opts.allowWrite {
		state.Sandbox().Grant(lua.CapabilityBufferWrite)
	}
	if err := lua.NewMacroModule(doc, env, rt.functionNames(opts.funcs, opts.regex)).Register(state); err != nil {
		return err
	}

	rt.logger.WithField("script", args[0]).Debug("running")
	if err := state.DoFile(args[0]); err != nil {
		return fmt.Errorf("script %s: %w", args[0], err)
	}

	if opts.write {
		return writeFile(doc.Path(), doc.Text())
	}
	return nil
}
