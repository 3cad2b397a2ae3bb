package helper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/soundbus/halbridge/internal/process"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

type eventRecorder struct {
	mu     sync.Mutex
	events []string
	pids   []int
}

func (r *eventRecorder) WriteHelperEvent(event string, pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.pids = append(r.pids, pid)
}

func (r *eventRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "helper.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "disabled skips all checks",
			config: Config{Enabled: false},
		},
		{
			name: "valid",
			config: Config{
				Enabled:    true,
				Binary:     "/usr/libexec/hal-helper",
				BusAddress: "tcp://localhost:1883",
			},
		},
		{
			name:    "missing binary",
			config:  Config{Enabled: true, BusAddress: "tcp://localhost:1883"},
			wantErr: "binary path is required",
		},
		{
			name: "relative binary",
			config: Config{
				Enabled:    true,
				Binary:     "hal-helper",
				BusAddress: "tcp://localhost:1883",
			},
			wantErr: "must be absolute",
		},
		{
			name:    "missing bus address",
			config:  Config{Enabled: true, Binary: "/usr/libexec/hal-helper"},
			wantErr: "bus address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNew_RequiresLogger(t *testing.T) {
	if _, err := New(Config{}, nil, nil); err == nil {
		t.Error("New() with nil logger error = nil, want error")
	}
}

func TestBridge_DisabledSpawnsNothing(t *testing.T) {
	rec := &eventRecorder{}
	b, err := New(Config{Enabled: false}, testLogger{}, rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if b.IsRunning() {
		t.Error("IsRunning() = true for disabled helper")
	}
	if b.PID() != 0 {
		t.Errorf("PID() = %d, want 0", b.PID())
	}
	if b.Status() != process.StatusUnstarted {
		t.Errorf("Status() = %q, want %q", b.Status(), process.StatusUnstarted)
	}
	if err := b.Stop(); err != nil {
		t.Errorf("Stop() = %v, want nil", err)
	}
	if len(rec.recorded()) != 0 {
		t.Errorf("events = %v, want none", rec.recorded())
	}
}

func TestBridge_StartStop(t *testing.T) {
	script := writeScript(t, "echo started with $1\nwhile true; do sleep 1; done\n")
	rec := &eventRecorder{}
	b, err := New(Config{
		Enabled:         true,
		Binary:          script,
		BusAddress:      "tcp://localhost:1883",
		GracefulTimeout: 2 * time.Second,
	}, testLogger{}, rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !b.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if b.PID() == 0 {
		t.Error("PID() = 0 after Start")
	}

	if err := b.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if b.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	if b.Status() != process.StatusStopped {
		t.Errorf("Status() = %q, want %q", b.Status(), process.StatusStopped)
	}

	events := rec.recorded()
	if len(events) < 2 || events[0] != "started" {
		t.Errorf("events = %v, want started first", events)
	}
	if events[len(events)-1] != "stopped" {
		t.Errorf("events = %v, want stopped last", events)
	}
}

func TestBridge_StartTwice(t *testing.T) {
	script := writeScript(t, "while true; do sleep 1; done\n")
	b, err := New(Config{
		Enabled:         true,
		Binary:          script,
		BusAddress:      "tcp://localhost:1883",
		GracefulTimeout: 2 * time.Second,
	}, testLogger{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer b.Stop()

	if err := b.Start(context.Background()); err == nil {
		t.Error("second Start() error = nil, want error")
	}
}

func TestBridge_SpawnFailureSurfaces(t *testing.T) {
	b, err := New(Config{
		Enabled:    true,
		Binary:     "/nonexistent/hal-helper",
		BusAddress: "tcp://localhost:1883",
	}, testLogger{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := b.Start(context.Background()); err == nil {
		t.Fatal("Start() error = nil, want spawn failure")
	}
	if b.IsRunning() {
		t.Error("IsRunning() = true after failed spawn")
	}
	// Stop after a failed spawn must not block or error.
	if err := b.Stop(); err != nil {
		t.Errorf("Stop() = %v, want nil", err)
	}
}

func TestBridge_SelfExitNotRespawned(t *testing.T) {
	script := writeScript(t, "exit 0\n")
	b, err := New(Config{
		Enabled:         true,
		Binary:          script,
		BusAddress:      "tcp://localhost:1883",
		GracefulTimeout: time.Second,
	}, testLogger{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for b.Status() != process.StatusStopped {
		if time.Now().After(deadline) {
			t.Fatalf("Status() = %q, want %q", b.Status(), process.StatusStopped)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The bridge never brings a dead helper back.
	if b.IsRunning() {
		t.Error("IsRunning() = true after self exit")
	}
	if err := b.Stop(); err != nil {
		t.Errorf("Stop() after self exit = %v, want nil", err)
	}
}

func TestBridge_BusAddressPassedAsArgument(t *testing.T) {
	out := filepath.Join(t.TempDir(), "args.txt")
	script := writeScript(t, "echo \"$1\" > "+out+"\n")
	b, err := New(Config{
		Enabled:         true,
		Binary:          script,
		BusAddress:      "tcp://broker.local:1883",
		GracefulTimeout: time.Second,
	}, testLogger{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for b.Status() != process.StatusStopped {
		if time.Now().After(deadline) {
			t.Fatal("helper did not exit")
		}
		time.Sleep(10 * time.Millisecond)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read args file: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "tcp://broker.local:1883" {
		t.Errorf("helper arg = %q, want bus address", got)
	}
}
