package module

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/soundbus/halbridge/internal/gateway"
	"github.com/soundbus/halbridge/internal/hal"
	"github.com/soundbus/halbridge/internal/helper"
	"github.com/soundbus/halbridge/internal/infrastructure/config"
	"github.com/soundbus/halbridge/internal/infrastructure/mqtt"
)

// Logger defines the logging interface for the module.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	DebugEnabled() bool
}

// Telemetry is the combined recording surface for parameter calls and
// helper lifecycle events. Optional.
type Telemetry interface {
	WriteCallMetric(method string, duration time.Duration, success bool)
	WriteHelperEvent(event string, pid int)
}

// Module wires the HAL handle, the parameter gateway and the helper
// bridge together for one load/unload cycle.
//
// Load acquires its pieces in a fixed order and a failure at any step
// unwinds the steps already done, in reverse, before the error is
// returned. Unload runs the same teardown and is safe to call on a
// partially loaded or already unloaded module.
type Module struct {
	cfg       *config.Config
	registry  *hal.Registry
	bus       gateway.BusClient
	logger    Logger
	telemetry Telemetry

	mu     sync.Mutex
	handle *hal.Module
	gw     *gateway.Gateway
	bridge *helper.Bridge
	loaded bool
}

// New creates a module. telemetry may be nil.
func New(cfg *config.Config, registry *hal.Registry, bus gateway.BusClient, logger Logger, telemetry Telemetry) (*Module, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if bus == nil {
		return nil, fmt.Errorf("bus client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Module{
		cfg:       cfg,
		registry:  registry,
		bus:       bus,
		logger:    logger,
		telemetry: telemetry,
	}, nil
}

// Load acquires the HAL module, registers the parameter gateway and
// spawns the helper. On failure every step already taken is undone in
// reverse order and the module is left fully unloaded.
func (m *Module) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return fmt.Errorf("module already loaded")
	}

	handle, err := m.registry.Acquire(m.cfg.HAL.ModuleID)
	if err != nil {
		return fmt.Errorf("acquiring hal module %q: %w", m.cfg.HAL.ModuleID, err)
	}
	m.handle = handle

	gw, err := gateway.New(gateway.Config{QoS: byte(m.cfg.MQTT.QoS)}, handle, m.bus, m.logger, m.callTelemetry())
	if err != nil {
		m.unwind()
		return fmt.Errorf("creating gateway: %w", err)
	}
	if err := gw.Register(); err != nil {
		m.unwind()
		return fmt.Errorf("registering gateway: %w", err)
	}
	m.gw = gw

	bridge, err := helper.New(helper.Config{
		Enabled:         m.cfg.Helper.Enabled,
		Binary:          m.cfg.Helper.Binary,
		BusAddress:      m.cfg.BusAddress(),
		GracefulTimeout: m.cfg.Helper.GracefulTimeout,
		Debug:           m.logger.DebugEnabled(),
	}, m.logger, m.helperTelemetry())
	if err != nil {
		m.unwind()
		return fmt.Errorf("creating helper bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		m.unwind()
		return fmt.Errorf("starting helper: %w", err)
	}
	m.bridge = bridge

	m.loaded = true
	m.publishHelperStatus()
	m.logger.Info("module loaded",
		"module_id", m.cfg.HAL.ModuleID,
		"helper_enabled", m.cfg.Helper.Enabled,
		"helper_pid", bridge.PID(),
	)
	return nil
}

// Unload tears the module down: gateway first so no new requests come
// in, then the helper, then the HAL handle. Teardown failures are
// logged and teardown continues; by the time Unload returns the helper
// has been reaped. Calling Unload again is a no-op.
func (m *Module) Unload() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded && m.handle == nil {
		return
	}
	m.loaded = false
	m.unwind()
	m.logger.Info("module unloaded", "module_id", m.cfg.HAL.ModuleID)
}

// unwind releases whatever has been acquired so far, newest first.
// Callers hold m.mu.
func (m *Module) unwind() {
	if m.gw != nil {
		if err := m.gw.Unregister(); err != nil {
			m.logger.Warn("gateway unregister failed", "error", err)
		}
		m.gw = nil
	}

	if m.bridge != nil {
		if err := m.bridge.Stop(); err != nil {
			m.logger.Warn("helper stop failed", "error", err)
		}
		m.bridge = nil
		m.publishHelperStatus()
	}

	if m.handle != nil {
		if err := m.handle.Release(); err != nil {
			m.logger.Warn("hal module release failed", "error", err)
		}
		m.handle = nil
	}
}

// Loaded reports whether the module is currently loaded.
func (m *Module) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// HelperStatus returns the helper bridge statistics, zeroed when no
// helper exists.
func (m *Module) HelperStatus() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.helperStatusLocked()
}

// helperStatusLocked builds the status map. Callers hold m.mu.
func (m *Module) helperStatusLocked() map[string]any {
	bridge := m.bridge

	status := map[string]any{
		"running":   false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if bridge != nil {
		status["running"] = bridge.IsRunning()
		status["status"] = string(bridge.Status())
		if pid := bridge.PID(); pid != 0 {
			status["pid"] = pid
		}
	}
	return status
}

// publishHelperStatus announces the helper state retained so late bus
// subscribers see the current state. Publish failures are logged only.
// Callers hold m.mu.
func (m *Module) publishHelperStatus() {
	payload, err := json.Marshal(m.helperStatusLocked())
	if err != nil {
		m.logger.Error("marshal helper status failed", "error", err)
		return
	}
	topic := mqtt.Topics{}.HelperStatus()
	if err := m.bus.Publish(topic, payload, byte(m.cfg.MQTT.QoS), true); err != nil {
		m.logger.Warn("publish helper status failed", "topic", topic, "error", err)
	}
}

func (m *Module) callTelemetry() gateway.Telemetry {
	if m.telemetry == nil {
		return nil
	}
	return m.telemetry
}

func (m *Module) helperTelemetry() helper.Telemetry {
	if m.telemetry == nil {
		return nil
	}
	return m.telemetry
}
