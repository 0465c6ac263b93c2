// Package main is the entry point for the nssmexec service orchestrator.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"vawter.tech/stopper"

	"nssmexec/internal/config"
	"nssmexec/internal/executor"
	"nssmexec/internal/logger"
	"nssmexec/internal/nssm"
	"nssmexec/internal/plan"
	"nssmexec/internal/report"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// startupErrorLogDir receives fatal errors that happen before or while
// the logger initializes, so they are visible when the console is not.
const startupErrorLogDir = "log/nssmexec"

// watchStopGrace is how long watch mode waits for an in-flight batch
// when shutting down.
const watchStopGrace = 5 * time.Second

// exitError carries a process exit code through cobra without printing
// anything beyond what the batch summary already logged.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// cliOptions holds the flag values shared by all subcommands.
type cliOptions struct {
	configPath  string
	loggingPath string
	reportPath  string
	verbose     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCommand().ExecuteContext(ctx)
	logger.Close()
	if err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "nssmexec",
		Short: "Recreates Windows services from a declarative configuration through nssm",
		Long: `nssmexec reads a TOML description of Windows services and drives the
nssm service manager to realize it: stop, remove, install and start, in
dependency order. Running it without a subcommand applies the full
recreate cycle.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), opts, plan.ActionRecreate)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config/nssm_exec.toml", "Path to the service configuration file")
	rootCmd.PersistentFlags().StringVarP(&opts.loggingPath, "logging", "l", "config/logging.yml", "Path to the logging configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.reportPath, "report", "", "Write a JSON batch report to this path")
	rootCmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Log at debug level regardless of the logging configuration")

	rootCmd.AddCommand(newRecreateCommand(opts))
	rootCmd.AddCommand(newStopCommand(opts))
	rootCmd.AddCommand(newStatusCommand(opts))
	rootCmd.AddCommand(newWatchCommand(opts))

	return rootCmd
}

func newRecreateCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recreate",
		Short: "Stop, remove, install and start every configured service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), opts, plan.ActionRecreate)
		},
	}
}

func newStopCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop every configured service, dependents first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), opts, plan.ActionStop)
		},
	}
}

func newStatusCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the current state of every configured service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), opts)
		},
	}
}

func newWatchCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Apply the configuration, then reapply it whenever the file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts)
		},
	}
}

// setup loads the split configuration and initializes the logger. The
// error is written to the startup error file before the logger exists.
func setup(opts *cliOptions) (*config.Config, error) {
	cfg, lc, err := config.LoadSplit(opts.configPath, opts.loggingPath)
	if err != nil {
		logger.WriteStartupErrorFile(startupErrorLogDir, err)
		return nil, err
	}

	if opts.verbose {
		lc.Level = "debug"
	}
	if err := logger.Init(*lc); err != nil {
		err = fmt.Errorf("failed to initialize logger: %w", err)
		logger.WriteStartupErrorFile(startupErrorLogDir, err)
		return nil, err
	}

	log := logger.WithComponent("main")
	log.Info().
		Str("version", version).
		Str("config", opts.configPath).
		Str("logging", opts.loggingPath).
		Int("services", len(cfg.Services)).
		Msg("Configuration loaded")

	return cfg, nil
}

// runBatch executes one action against the configured services and maps
// the report to the process exit code.
func runBatch(ctx context.Context, opts *cliOptions, action plan.Action) error {
	cfg, err := setup(opts)
	if err != nil {
		return err
	}

	rep, err := applyBatch(ctx, cfg, action, opts.reportPath)
	if err != nil {
		if rep == nil {
			// Nothing was spawned; record it like other startup failures.
			logger.WriteStartupErrorFile(startupErrorLogDir, err)
		}
		return err
	}

	if code := rep.ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// applyBatch plans and executes one batch, logs the per-service summary
// and optionally writes the JSON report artifact. A nil report means
// planning failed and no manager command ran.
func applyBatch(ctx context.Context, cfg *config.Config, action plan.Action, reportPath string) (*report.Report, error) {
	log := logger.WithComponent("main")

	p, err := plan.Build(cfg, action)
	if err != nil {
		log.Error().Err(err).Msg("Refusing to execute, planning failed")
		return nil, err
	}

	log.Info().
		Str("action", action.String()).
		Int("steps", len(p.Steps)).
		Str("manager", cfg.ManagerPath).
		Msg("Executing plan")

	invoker := nssm.New(cfg.ManagerPath, cfg.Poll)
	rep := executor.New(invoker).Execute(ctx, p)

	logSummary(rep)

	if reportPath != "" {
		if err := report.WriteFile(reportPath, rep); err != nil {
			log.Error().Err(err).Str("path", reportPath).Msg("Failed to write report file")
			return rep, err
		}
		log.Info().Str("path", reportPath).Msg("Report written")
	}

	return rep, nil
}

// logSummary writes one outcome line per service plus the batch totals.
func logSummary(rep *report.Report) {
	log := logger.WithComponent("summary")

	for _, s := range rep.ServiceSummaries() {
		if s.OK {
			log.Info().Str("service", s.Service).Msg("[OK]")
		} else {
			log.Error().
				Str("service", s.Service).
				Str("op", s.FailedOp).
				Str("cause", s.Cause).
				Msg("[FAILED]")
		}
	}

	success, failure, skipped := rep.Counts()
	evt := log.Info()
	if rep.Failed() {
		evt = log.Error()
	}
	evt.
		Str("action", rep.Action).
		Int("success", success).
		Int("failure", failure).
		Int("skipped", skipped).
		Msg("Batch finished")
}

// runStatus queries the manager for every configured service and prints
// one line per service. Informational only: absent services are not an
// error, an unreachable manager is.
func runStatus(ctx context.Context, opts *cliOptions) error {
	cfg, err := setup(opts)
	if err != nil {
		return err
	}

	invoker := nssm.New(cfg.ManagerPath, cfg.Poll)
	for i := range cfg.Services {
		name := cfg.Services[i].Name

		state, err := invoker.Status(ctx, name)
		switch {
		case errors.Is(err, nssm.ErrNotInstalled):
			fmt.Printf("%-30s not installed\n", name)
		case err != nil:
			var inv *nssm.InvocationError
			if errors.As(err, &inv) {
				return err
			}
			fmt.Printf("%-30s error: %v\n", name, err)
		default:
			fmt.Printf("%-30s %s\n", name, state)
		}
	}
	return nil
}

// runWatch applies the configuration once, then reapplies it on every
// change to the config file until a shutdown signal arrives. Reload
// failures keep the previous services untouched; an uninvokable manager
// ends watch mode.
func runWatch(ctx context.Context, opts *cliOptions) error {
	cfg, err := setup(opts)
	if err != nil {
		return err
	}

	rep, err := applyBatch(ctx, cfg, plan.ActionRecreate, opts.reportPath)
	if err != nil {
		if rep == nil {
			logger.WriteStartupErrorFile(startupErrorLogDir, err)
		}
		return err
	}
	if rep.Aborted {
		return errors.New("service manager could not be invoked, not entering watch mode")
	}

	// Latest change wins; a queued older configuration is superseded.
	runs := make(chan *config.Config, 1)
	watcher, err := config.NewConfigWatcher(opts.configPath, func(next *config.Config) {
		select {
		case <-runs:
		default:
		}
		runs <- next
	})
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start config watcher: %w", err)
	}

	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		if err := watcher.Stop(); err != nil {
			log := logger.WithComponent("watch")
			log.Error().Err(err).Msg("Error stopping config watcher")
		}
	})

	startLoggingWatcher(sctx, opts)

	fatal := make(chan error, 1)
	sctx.Go(func(sctx *stopper.Context) error {
		for {
			select {
			case <-sctx.Stopping():
				return nil
			case next := <-runs:
				// Fresh component logger per run; a logging reload may
				// have replaced the global writers in the meantime.
				log := logger.WithComponent("watch")
				log.Info().Msg("Configuration changed, reapplying services")

				r, err := applyBatch(ctx, next, plan.ActionRecreate, opts.reportPath)
				if r != nil && r.Aborted {
					fatal <- errors.New("service manager could not be invoked, leaving watch mode")
					return nil
				}
				if err != nil {
					log.Error().Err(err).Msg("Reapply failed, previous services stay as they are")
				}
			}
		}
	})

	log := logger.WithComponent("watch")
	log.Info().
		Str("config", opts.configPath).
		Msg("Watching configuration for changes")

	var fatalErr error
	select {
	case <-ctx.Done():
		log := logger.WithComponent("watch")
		log.Info().Msg("Received shutdown signal")
	case fatalErr = <-fatal:
	}

	sctx.Stop(watchStopGrace)
	if err := sctx.Wait(); err != nil {
		log := logger.WithComponent("watch")
		log.Error().Err(err).Msg("Watch loop exited with error")
	}
	return fatalErr
}

// startLoggingWatcher hot-reloads the logging configuration during
// watch mode. Failure only costs the reload, never the watch loop.
func startLoggingWatcher(sctx *stopper.Context, opts *cliOptions) {
	log := logger.WithComponent("watch")

	lw, err := config.NewLoggingWatcher(opts.loggingPath, func(lc *logger.Config) {
		if opts.verbose {
			lc.Level = "debug"
		}
		if err := logger.Init(*lc); err != nil {
			log := logger.WithComponent("watch")
			log.Error().Err(err).Msg("Failed to apply logging configuration")
			return
		}
		log := logger.WithComponent("watch")
		log.Info().Msg("Logging configuration updated")
	})
	if err != nil {
		log.Warn().Err(err).Msg("Logging hot reload disabled")
		return
	}
	if err := lw.Start(); err != nil {
		log.Warn().Err(err).Msg("Logging hot reload disabled")
		return
	}

	sctx.Defer(func() {
		if err := lw.Stop(); err != nil {
			log := logger.WithComponent("watch")
			log.Error().Err(err).Msg("Error stopping logging watcher")
		}
	})
}
