package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/todos/internal/config"
	"github.com/Makepad-fr/todos/internal/logging"
	"github.com/Makepad-fr/todos/internal/store/httpstore"
	"github.com/Makepad-fr/todos/internal/tui"
	"github.com/Makepad-fr/todos/internal/ui"
)

// usageError marks errors caused by how the command was invoked (exit 2).
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// app carries what every subcommand needs once setup has run.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  tui.Store

	closers []io.Closer

	// flag overrides
	apiURL   string
	theme    string
	logFile  string
	logLevel string
	timeout  time.Duration
}

// Execute runs the CLI and returns an exit code (0 ok, 1 error, 2 usage).
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return 0
	}
	ui.Fail(stderr, err.Error())
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "todos",
		Short: "todos - a task list backed by a remote API",
		Long: `todos manages a task list stored on a remote API.

Run without a subcommand for the interactive view:
  enter   add the typed task          tab     switch between input and list
  space   toggle the selected task    d       delete the selected task
  e       edit (not supported yet)    q       quit`,
		Example: `  TODOS_API_URL=http://localhost:8000/api/ todos
  todos add "Buy milk"
  todos ls --group
  todos done 7
  todos rm 7`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usagef("unknown subcommand: %s", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, true); err != nil {
				return err
			}
			return tui.Run(cmd.Context(), a.store, a.logger)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.apiURL, "api-url", "", "base URL of the task API (overrides TODOS_API_URL)")
	pf.StringVar(&a.theme, "theme", "", "color theme: classic, neon or mono (overrides TODOS_THEME)")
	pf.StringVar(&a.logFile, "log-file", "", "append diagnostics to this file (overrides TODOS_LOG_FILE)")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides TODOS_LOG_LEVEL)")
	pf.DurationVar(&a.timeout, "timeout", 0, "per-request timeout, 0 for none (overrides TODOS_HTTP_TIMEOUT)")

	root.AddCommand(a.lsCmd(), a.addCmd(), a.doneCmd(), a.rmCmd())
	return root
}

// setup loads configuration and builds the logger and the API client.
// interactive selects where logs go when no log file is configured: the
// view owns the terminal, so they are dropped instead of printed.
func (a *app) setup(cmd *cobra.Command, interactive bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = a.apiURL
	}
	if flags.Changed("theme") {
		cfg.Theme = a.theme
	}
	if flags.Changed("log-file") {
		cfg.LogFile = a.logFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("timeout") {
		cfg.HTTPTimeout = a.timeout
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingAPIURL) {
			return usagef("%v (or pass --api-url)", err)
		}
		return usageError{err}
	}
	a.cfg = cfg
	ui.SetTheme(cfg.Theme)

	logger, err := a.newLogger(cmd, interactive)
	if err != nil {
		return err
	}
	a.logger = logger.With("correlation_id", uuid.NewString())
	a.logger.Debug("command start", "command", cmd.CommandPath(), "api_url", cfg.APIURL)

	opts := []httpstore.Option{
		httpstore.WithLogger(a.logger),
		httpstore.WithTimeout(cfg.HTTPTimeout),
	}
	if cfg.BreakerEnabled {
		opts = append(opts, httpstore.WithCircuitBreaker(httpstore.BreakerConfig{
			FailureThreshold: cfg.BreakerFailures,
			Timeout:          cfg.BreakerTimeout,
		}))
	}
	store, err := httpstore.New(cfg.APIURL, opts...)
	if err != nil {
		return usageError{err}
	}
	a.store = store
	return nil
}

func (a *app) newLogger(cmd *cobra.Command, interactive bool) (*slog.Logger, error) {
	opts := logging.Options{Level: a.cfg.LogLevel, Format: a.cfg.LogFormat}
	switch {
	case a.cfg.LogFile != "":
		f, err := logging.OpenFile(a.cfg.LogFile)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, f)
		opts.Output = f
	case interactive:
		return logging.Discard(), nil
	default:
		opts.Output = cmd.ErrOrStderr()
		opts.Level = "warn"
	}
	return logging.New(opts), nil
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	a.closers = nil
}
