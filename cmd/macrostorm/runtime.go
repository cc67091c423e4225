package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/macrostorm/internal/config"
	"github.com/dshills/macrostorm/internal/expand/funcs"
	"github.com/dshills/macrostorm/internal/host"
	"github.com/dshills/macrostorm/internal/logging"
	"github.com/dshills/macrostorm/internal/watch"
)

// cliRuntime carries what every command derives from the global flags.
type cliRuntime struct {
	cfg     *config.Config
	logger  *logging.Logger
	timings bool
}

// loadRuntime reads the persistent flags, loads the config and applies the
// flag overrides on top of it.
func loadRuntime(cmd *cobra.Command) (*cliRuntime, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	levelFlag, err := flags.GetString("log-level")
	if err != nil {
		return nil, err
	}
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return nil, err
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return nil, err
	}

	useColor, err := colorMode(colorFlag, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	color.NoColor = !useColor

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if levelFlag != "" {
		if _, ok := logging.ParseLevel(levelFlag); !ok {
			return nil, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", levelFlag)
		}
		cfg.Logging.Level = levelFlag
	}

	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: cmd.ErrOrStderr(),
		Prefix: config.AppName,
		Color:  useColor && logging.IsTerminal(cmd.ErrOrStderr()),
	})

	return &cliRuntime{cfg: cfg, logger: logger, timings: timings}, nil
}

func colorMode(flag string, out io.Writer) (bool, error) {
	switch strings.ToLower(flag) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return logging.IsTerminal(out), nil
	default:
		return false, fmt.Errorf("invalid --color %q (must be auto, on, or off)", flag)
	}
}

// openCache opens the response cache directory from the config.
func (rt *cliRuntime) openCache() (*host.DiskCache, error) {
	dir := rt.cfg.Fetch.Cache.Dir
	if dir == "" {
		var err error
		dir, err = host.DefaultCacheDir(config.AppName)
		if err != nil {
			return nil, err
		}
	}
	return host.OpenDiskCache(dir)
}

// fetcher builds the @getUrl() transport, wrapped in the disk cache when
// enabled.
func (rt *cliRuntime) fetcher() (host.Fetcher, error) {
	fc := rt.cfg.Fetch
	httpFetcher := host.NewHTTPFetcher(
		host.WithTimeout(fc.Timeout.Duration),
		host.WithMaxBytes(fc.MaxBytes),
		host.WithUserAgent(fc.UserAgent),
	)
	if !fc.Cache.Enabled {
		return httpFetcher, nil
	}
	cache, err := rt.openCache()
	if err != nil {
		return nil, fmt.Errorf("opening fetch cache: %w", err)
	}
	return host.NewCachedFetcher(httpFetcher, cache, fc.Cache.TTL.Duration, rt.logger), nil
}

// funcEnv assembles the capabilities for the built-in functions.
func (rt *cliRuntime) funcEnv(doc *host.Document) (funcs.Env, error) {
	f, err := rt.fetcher()
	if err != nil {
		return funcs.Env{}, err
	}
	return funcs.Env{
		Editor:               doc,
		Fetcher:              f,
		MaxConcurrentFetches: rt.cfg.Fetch.MaxConcurrent,
		Logger:               rt.logger,
	}, nil
}

// functionNames picks the function order: the --funcs flag, then the config
// list, then the configured or requested preset.
func (rt *cliRuntime) functionNames(flagList string, regex bool) []string {
	if names := splitNames(flagList); len(names) > 0 {
		return names
	}
	if len(rt.cfg.Expand.Functions) > 0 {
		return rt.cfg.Expand.Functions
	}
	if regex || rt.cfg.Expand.Preset == config.PresetRegex {
		return funcs.RegexOrder()
	}
	return funcs.DefaultOrder()
}

func splitNames(s string) []string {
	var names []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// watch runs task once, then again after every change to files. Task errors
// are reported and watching continues; it stops when the command context
// ends.
func (rt *cliRuntime) watch(cmd *cobra.Command, files []string, task func() error) error {
	w, err := watch.New(files, watch.WithLogger(rt.logger))
	if err != nil {
		return err
	}
	defer w.Close()

	run := func() error {
		if err := task(); err != nil {
			printError(cmd.ErrOrStderr(), err)
		}
		return nil
	}
	_ = run()
	rt.logger.Info("watching %s", strings.Join(files, ", "))
	return w.Run(cmd.Context(), run)
}
