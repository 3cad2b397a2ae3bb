package helper

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/soundbus/halbridge/internal/process"
)

// Config holds the configuration for the helper process.
type Config struct {
	// Enabled controls whether a helper is spawned at all. When false
	// the bridge is inert: nothing is started and stop is a no-op.
	Enabled bool `yaml:"enabled"`

	// Binary is the path to the helper executable.
	Binary string `yaml:"binary"`

	// BusAddress is handed to the helper as its only argument so it can
	// reach the same message bus as the daemon.
	BusAddress string `yaml:"-"`

	// GracefulTimeout is how long to wait after SIGTERM before SIGKILL.
	GracefulTimeout time.Duration `yaml:"graceful_timeout"`

	// Debug raises helper output logging to debug level.
	Debug bool `yaml:"-"`
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Binary == "" {
		return fmt.Errorf("helper binary path is required")
	}
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("helper binary path must be absolute: %s", c.Binary)
	}
	if c.BusAddress == "" {
		return fmt.Errorf("helper bus address is required")
	}
	return nil
}

// Logger defines the logging interface for the helper bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Telemetry records helper lifecycle events. Optional.
type Telemetry interface {
	WriteHelperEvent(event string, pid int)
}

// Bridge owns the companion helper process for the lifetime of one
// module load. It spawns the helper at most once and guarantees the
// process is signalled and reaped before Stop returns. A helper that
// dies on its own is logged and left dead; the bridge never respawns.
type Bridge struct {
	config    Config
	logger    Logger
	telemetry Telemetry

	mu   sync.Mutex
	proc *process.Manager
}

// New creates a helper bridge. telemetry may be nil.
func New(cfg Config, logger Logger, telemetry Telemetry) (*Bridge, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid helper config: %w", err)
	}

	return &Bridge{
		config:    cfg,
		logger:    logger,
		telemetry: telemetry,
	}, nil
}

// Start spawns the helper process. With the helper disabled this is a
// no-op and no process state is created. A spawn failure is returned to
// the caller so module load can unwind.
func (b *Bridge) Start(ctx context.Context) error {
	if !b.config.Enabled {
		b.logger.Debug("helper disabled, not spawning")
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.proc != nil {
		return fmt.Errorf("helper already started")
	}

	proc := process.NewManager(process.Config{
		Name:            "hal-helper",
		Binary:          b.config.Binary,
		Args:            []string{b.config.BusAddress},
		GracefulTimeout: b.config.GracefulTimeout,
		Debug:           b.config.Debug,
		OnStart: func(pid int) {
			b.recordEvent("started", pid)
		},
		OnExit: func(err error) {
			if err != nil {
				b.logger.Warn("helper exited", "error", err)
			} else {
				b.logger.Info("helper exited cleanly")
			}
			b.recordEvent("exited", 0)
		},
	})
	proc.SetLogger(b.logger)

	if err := proc.Start(ctx); err != nil {
		return fmt.Errorf("spawning helper: %w", err)
	}

	b.proc = proc
	return nil
}

// Stop tears the helper down and does not return before the process has
// been reaped. Safe to call when the helper was never started, was
// disabled, or has already stopped.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	proc := b.proc
	b.mu.Unlock()

	if proc == nil {
		return nil
	}

	if err := proc.Stop(); err != nil {
		return fmt.Errorf("stopping helper: %w", err)
	}

	b.recordEvent("stopped", 0)
	return nil
}

// Status reports the helper process status. A disabled or never-started
// helper reports unstarted.
func (b *Bridge) Status() process.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.proc == nil {
		return process.StatusUnstarted
	}
	return b.proc.Status()
}

// IsRunning returns true while the helper process is alive.
func (b *Bridge) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.proc != nil && b.proc.IsRunning()
}

// PID returns the helper process ID, or 0 when no helper was spawned.
func (b *Bridge) PID() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.proc == nil {
		return 0
	}
	return b.proc.PID()
}

// Stats returns process statistics for the helper.
func (b *Bridge) Stats() process.Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.proc == nil {
		return process.Stats{Name: "hal-helper", Status: process.StatusUnstarted}
	}
	return b.proc.Stats()
}

func (b *Bridge) recordEvent(event string, pid int) {
	if b.telemetry == nil {
		return
	}
	b.telemetry.WriteHelperEvent(event, pid)
}
