package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Status represents the current state of a managed process.
//
// A manager is single-shot: once the process reaches StatusStopped it is
// never respawned. The owner decides whether a fresh manager is wanted.
type Status string

const (
	// StatusUnstarted means Start has not been called (or failed).
	StatusUnstarted Status = "unstarted"

	// StatusRunning means the process is alive and its output is captured.
	StatusRunning Status = "running"

	// StatusDraining means output capture has been torn down after a read
	// failure but the process itself is still alive.
	StatusDraining Status = "draining"

	// StatusStopping means a stop was requested and the process has been
	// signalled.
	StatusStopping Status = "stopping"

	// StatusStopped means the process has exited and been reaped.
	StatusStopped Status = "stopped"
)

// outputBufferSize is the read chunk size for subprocess output capture.
const outputBufferSize = 512

// Config holds configuration for a managed subprocess.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Binary is the path to the executable.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// Env are additional environment variables (key=value format).
	// If nil, inherits from parent process.
	Env []string

	// WorkDir is the working directory for the process.
	// If empty, inherits from parent process.
	WorkDir string

	// GracefulTimeout is how long to wait after SIGTERM before SIGKILL.
	GracefulTimeout time.Duration

	// Debug raises output capture logging to debug level. When false the
	// chunks are still logged, at normal level.
	Debug bool

	// OnStart is called when the process starts successfully.
	OnStart func(pid int)

	// OnExit is called exactly once after the process has exited and been
	// reaped. err is the reap result, nil for a clean exit.
	OnExit func(err error)
}

// Logger defines the logging interface for the process manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager manages the lifecycle of a single subprocess.
type Manager struct {
	config Config
	logger Logger

	mu        sync.RWMutex
	cmd       *exec.Cmd
	status    Status
	exitErr   error
	startTime time.Time

	// done is closed once the process has been reaped.
	done chan struct{}
}

// NewManager creates a new process manager with the given configuration.
func NewManager(cfg Config) *Manager {
	if cfg.GracefulTimeout == 0 {
		cfg.GracefulTimeout = 10 * time.Second
	}

	return &Manager{
		config: cfg,
		logger: noopLogger{},
		status: StatusUnstarted,
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Start launches the subprocess and begins capturing its output.
// A manager can be started at most once; a second call is an error,
// including after the process has stopped.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.status != StatusUnstarted {
		m.mu.Unlock()
		return fmt.Errorf("process %s already started (status %s)", m.config.Name, m.status)
	}
	m.mu.Unlock()

	m.logger.Info("starting process",
		"name", m.config.Name,
		"binary", m.config.Binary,
		"args", m.config.Args,
	)

	cmd := exec.CommandContext(ctx, m.config.Binary, m.config.Args...) //nolint:gosec // Binary path is validated by the owning bridge config.

	// New process group so stop can signal children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// Context cancellation takes the same graceful path as Stop: SIGTERM
	// to the group, SIGKILL only after the grace period.
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = m.config.GracefulTimeout

	if m.config.Env != nil {
		cmd.Env = append(os.Environ(), m.config.Env...)
	}
	if m.config.WorkDir != "" {
		cmd.Dir = m.config.WorkDir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", m.config.Name, err)
	}

	m.mu.Lock()
	m.cmd = cmd
	m.status = StatusRunning
	m.startTime = time.Now()
	m.done = make(chan struct{})
	m.mu.Unlock()

	var readers sync.WaitGroup
	readers.Add(2)
	go m.captureOutput("stdout", stdout, &readers)
	go m.captureOutput("stderr", stderr, &readers)
	go m.reap(cmd, &readers)

	m.logger.Info("process started",
		"name", m.config.Name,
		"pid", cmd.Process.Pid,
	)

	if m.config.OnStart != nil {
		m.config.OnStart(cmd.Process.Pid)
	}

	return nil
}

// captureOutput reads fixed-size chunks and logs them verbatim. A read
// failure only tears down the capture side; the process keeps running
// and drains until it exits on its own or is stopped.
func (m *Manager) captureOutput(stream string, r io.Reader, readers *sync.WaitGroup) {
	defer readers.Done()

	buf := make([]byte, outputBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			m.logChunk(stream, string(buf[:n]))
		}
		if err != nil {
			if err != io.EOF && !errors.Is(err, os.ErrClosed) {
				m.logger.Warn("output read failed, draining",
					"name", m.config.Name,
					"stream", stream,
					"error", err,
				)
				m.markDraining()
			}
			return
		}
	}
}

// logChunk logs one chunk of subprocess output, at debug level when the
// debug flag is set and at normal level otherwise.
func (m *Manager) logChunk(stream, chunk string) {
	if m.config.Debug {
		m.logger.Debug("process output",
			"name", m.config.Name,
			"stream", stream,
			"output", chunk,
		)
		return
	}
	m.logger.Info("process output",
		"name", m.config.Name,
		"stream", stream,
		"output", chunk,
	)
}

// markDraining moves a running process to draining. A stop already in
// flight wins.
func (m *Manager) markDraining() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusRunning {
		m.status = StatusDraining
	}
}

// reap waits for the output readers to finish, collects the exit status
// and settles the manager in StatusStopped. Reap failures are logged,
// never escalated: by the time they can happen the process is gone.
func (m *Manager) reap(cmd *exec.Cmd, readers *sync.WaitGroup) {
	readers.Wait()
	err := cmd.Wait()

	m.mu.Lock()
	m.exitErr = err
	m.status = StatusStopped
	done := m.done
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("process exited",
			"name", m.config.Name,
			"error", err,
		)
	} else {
		m.logger.Info("process exited cleanly", "name", m.config.Name)
	}

	close(done)

	if m.config.OnExit != nil {
		m.config.OnExit(err)
	}
}

// Stop requests shutdown and does not return until the process has been
// reaped. SIGTERM is sent to the process group exactly once; if the
// process outlives the graceful timeout it is killed. Calling Stop on a
// manager that was never started, or calling it again, is a no-op.
func (m *Manager) Stop() error {
	m.mu.Lock()
	switch m.status {
	case StatusUnstarted, StatusStopped:
		m.mu.Unlock()
		return nil
	case StatusStopping:
		// Another Stop is in flight; just wait for the reap.
		done := m.done
		m.mu.Unlock()
		<-done
		return nil
	}
	m.status = StatusStopping
	cmd := m.cmd
	done := m.done
	m.mu.Unlock()

	pid := cmd.Process.Pid
	m.logger.Info("stopping process", "name", m.config.Name, "pid", pid)

	// Signal the process group; negative PID targets the group created
	// via Setpgid.
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		if !errors.Is(err, syscall.ESRCH) {
			m.logger.Warn("failed to send SIGTERM to process group",
				"name", m.config.Name,
				"error", err,
			)
		}
	}

	select {
	case <-done:
		m.logger.Info("process stopped gracefully", "name", m.config.Name)
		return nil
	case <-time.After(m.config.GracefulTimeout):
		m.logger.Warn("graceful shutdown timeout, sending SIGKILL",
			"name", m.config.Name,
			"timeout", m.config.GracefulTimeout,
		)
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		if !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("killing process group %s: %w", m.config.Name, err)
		}
	}

	<-done
	m.logger.Info("process killed", "name", m.config.Name)

	return nil
}

// Status returns the current status of the managed process.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// IsRunning returns true while the process is alive, draining included.
func (m *Manager) IsRunning() bool {
	switch m.Status() {
	case StatusRunning, StatusDraining:
		return true
	}
	return false
}

// ExitError returns the reap result, nil until the process has exited.
func (m *Manager) ExitError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exitErr
}

// Uptime returns how long the process has been alive.
// Returns 0 if the process is not running.
func (m *Manager) Uptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch m.status {
	case StatusRunning, StatusDraining:
		return time.Since(m.startTime)
	}
	return 0
}

// PID returns the process ID, or 0 if never started.
func (m *Manager) PID() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cmd != nil && m.cmd.Process != nil {
		return m.cmd.Process.Pid
	}
	return 0
}

// Stats returns statistics about the managed process.
type Stats struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	PID       int           `json:"pid,omitempty"`
	Uptime    time.Duration `json:"uptime,omitempty"`
	ExitError string        `json:"exit_error,omitempty"`
}

// Stats returns current statistics for the process.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		Name:   m.config.Name,
		Status: m.status,
	}

	if m.cmd != nil && m.cmd.Process != nil {
		stats.PID = m.cmd.Process.Pid
	}

	switch m.status {
	case StatusRunning, StatusDraining:
		stats.Uptime = time.Since(m.startTime)
	}

	if m.exitErr != nil {
		stats.ExitError = m.exitErr.Error()
	}

	return stats
}
