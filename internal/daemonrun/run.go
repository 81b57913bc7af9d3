package daemonrun

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"datarecv/internal/config"
	"datarecv/internal/logging"
	"datarecv/internal/metrics"
	"datarecv/internal/msgstore"
	"datarecv/internal/pipeline"
	"datarecv/internal/preflight"
)

// Options configures receiver process runtime behavior.
type Options struct {
	// Address is the packet address to reassemble.
	Address     uint16
	LogLevel    string
	Development bool
	// Console receives log output; nil means stderr.
	Console io.Writer
}

// Run receives messages until the input ends or SIGINT/SIGTERM arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		Console:     opts.Console,
		FilePath:    cfg.LogPath(),
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(signalCtx, logger, cfg)

	store, err := msgstore.Open(msgstore.Options{
		Dir:       cfg.Paths.OutputDir,
		TypeTag:   cfg.Store.TypeTag,
		Category:  cfg.Store.Category,
		IndexPath: cfg.IndexPath(),
		Logger:    logger,
	})
	if err != nil {
		logger.Error("open message store", logging.Error(err))
		return err
	}
	defer store.Close()

	// The PID file belongs to whoever holds the output directory lock.
	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	m := metrics.New()
	backend, err := pipeline.NewBackend(cfg, m, logger)
	if err != nil {
		return fmt.Errorf("configure receiver: %w", err)
	}
	pipeOpts, err := pipeline.OptionsFromConfig(cfg, opts.Address)
	if err != nil {
		return fmt.Errorf("configure receiver: %w", err)
	}
	pipeOpts.Store = store
	pipeOpts.Observer = m
	pipeOpts.Backend = backend
	pipeOpts.Logger = logger
	p, err := pipeline.New(pipeOpts)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	runCtx, stop := context.WithCancel(signalCtx)
	defer stop()
	var g errgroup.Group
	if listen := strings.TrimSpace(cfg.Metrics.Listen); listen != "" {
		g.Go(func() error {
			if err := metrics.Serve(runCtx, listen, m, logger); err != nil {
				logging.WarnWithContext(logger, "metrics endpoint unavailable", "metrics_unavailable",
					logging.String("address", listen),
					logging.Error(err),
					logging.String(logging.FieldImpact, "reception continues without /metrics"),
				)
			}
			return nil
		})
	}

	runErr := p.Run(runCtx)
	stop()
	_ = g.Wait()

	if runErr != nil {
		logger.Error("receiver stopped", logging.Error(runErr))
		return runErr
	}
	logger.Info("receiver shutting down",
		logging.Uint64("records", store.Sequence().Last()),
	)
	return nil
}

// PIDPath is where a running receiver records its process ID.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.StateDir, "dab-datarecv.pid")
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	results := preflight.RunAll(ctx, cfg)
	failed := preflight.Failed(results)
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("source_kind", cfg.Source.Kind),
		logging.String(logging.FieldChannel, cfg.Receiver.Channel),
		logging.Bool("index_enabled", cfg.Store.Index),
		logging.Bool("metrics_enabled", strings.TrimSpace(cfg.Metrics.Listen) != ""),
		logging.Int("checks", len(results)),
		logging.Int("checks_failed", len(failed)),
	)
	for _, r := range failed {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "run `dab-datarecv check` for the full report"),
		)
	}
}
