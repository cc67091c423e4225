package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/macrostorm/internal/expand"
	"github.com/dshills/macrostorm/internal/expand/funcs"
	"github.com/dshills/macrostorm/internal/host"
)

type expandOptions struct {
	selStart  int
	selEnd    int
	selection string
	funcs     string
	regex     bool
	write     bool
	input     string
	watch     bool
}

func newExpandCmd() *cobra.Command {
	opts := &expandOptions{}
	cmd := &cobra.Command{
		Use:   "expand [file]",
		Short: "Expand macros in a file or stdin",
		Long: `Expand macros in a buffer read from file or stdin.

With a selection (--sel-start/--sel-end) only the selected text is expanded
and replaced; otherwise the whole buffer is. --input expands the given text
instead, using the buffer only as the source of @text() and @sel().`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(cmd, args, opts)
		},
	}

	cmd.Flags().IntVar(&opts.selStart, "sel-start", -1, "selection start byte offset")
	cmd.Flags().IntVar(&opts.selEnd, "sel-end", -1, "selection end byte offset")
	cmd.Flags().StringVar(&opts.selection, "selection", "", "use this text for @sel() instead of the buffer selection")
	cmd.Flags().StringVar(&opts.funcs, "funcs", "", "comma separated function order (see 'macrostorm funcs')")
	cmd.Flags().BoolVar(&opts.regex, "regex", false, "quote @sel() as a literal regular expression")
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write the result back to the file")
	cmd.Flags().StringVar(&opts.input, "input", "", "expand this text instead of the buffer")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "expand again whenever the file changes")
	return cmd
}

func runExpand(cmd *cobra.Command, args []string, opts *expandOptions) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	if opts.write && (len(args) == 0 || cmd.Flags().Changed("input")) {
		return errors.New("--write needs a file argument and cannot be combined with --input")
	}
	if opts.watch && (len(args) == 0 || opts.write) {
		return errors.New("--watch needs a file argument and cannot be combined with --write")
	}

	if !opts.watch {
		return expandOnce(cmd, rt, args, opts)
	}
	return rt.watch(cmd, args, func() error {
		return expandOnce(cmd, rt, args, opts)
	})
}

// expandOnce reads the buffer and writes one expansion of it.
func expandOnce(cmd *cobra.Command, rt *cliRuntime, args []string, opts *expandOptions) error {
	path, text, err := readBuffer(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	doc := host.NewFileDocument(path, text)
	if err := applySelection(doc, opts.selStart, opts.selEnd); err != nil {
		return err
	}

	env, err := rt.funcEnv(doc)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("selection") {
		env.Selection = &opts.selection
	}
	fns, err := funcs.Build(rt.functionNames(opts.funcs, opts.regex), env)
	if err != nil {
		return err
	}

	exp := expand.New(expand.WithLogger(rt.logger))
	ctx := cmd.Context()

	var out string
	switch {
	case cmd.Flags().Changed("input"):
		out, err = exp.Expand(ctx, opts.input, fns...)
	case !doc.Selection().IsEmpty():
		sel, _ := doc.CurrentSelection()
		var res string
		if res, err = exp.Expand(ctx, sel, fns...); err == nil {
			doc.ReplaceSelection(res)
			out = doc.Text()
		}
	default:
		out, err = exp.Expand(ctx, doc.Text(), fns...)
	}
	if err != nil {
		return err
	}

	if rt.timings {
		fmt.Fprint(cmd.ErrOrStderr(), exp.Report().Summary())
	}

	if opts.write {
		return writeFile(path, out)
	}
	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}

// readBuffer returns the file named by args, or stdin when there is none.
func readBuffer(stdin io.Reader, args []string) (string, string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return "", string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", err
	}
	return args[0], string(data), nil
}

// applySelection selects [start, end) when both offsets are given.
func applySelection(doc *host.Document, start, end int) error {
	if start < 0 && end < 0 {
		return nil
	}
	if start < 0 || end < 0 {
		return errors.New("--sel-start and --sel-end must be given together")
	}
	if err := doc.SetSelection(start, end); err != nil {
		return fmt.Errorf("selection %d-%d: %w", start, end, err)
	}
	return nil
}

// writeFile replaces path with content, keeping its permissions.
func writeFile(path, content string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, []byte(content), mode)
}
