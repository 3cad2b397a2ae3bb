package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
service:
  id: "test-bridge"
hal:
  module_id: "primary"
helper:
  enabled: true
  binary: "/opt/hal-helper"
  graceful_timeout: 5s
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.ID != "test-bridge" {
		t.Errorf("Service.ID = %q, want %q", cfg.Service.ID, "test-bridge")
	}
	if cfg.HAL.ModuleID != "primary" {
		t.Errorf("HAL.ModuleID = %q, want %q", cfg.HAL.ModuleID, "primary")
	}
	if cfg.Helper.Binary != "/opt/hal-helper" {
		t.Errorf("Helper.Binary = %q, want %q", cfg.Helper.Binary, "/opt/hal-helper")
	}
	if cfg.Helper.GracefulTimeout != 5*time.Second {
		t.Errorf("Helper.GracefulTimeout = %v, want %v", cfg.Helper.GracefulTimeout, 5*time.Second)
	}
	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Minimal file: everything should come from defaults.
	cfg, err := Load(writeConfig(t, "service:\n  id: x\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HAL.ModuleID != "primary" {
		t.Errorf("HAL.ModuleID = %q, want %q", cfg.HAL.ModuleID, "primary")
	}
	if !cfg.Helper.Enabled {
		t.Error("Helper.Enabled = false, want true by default")
	}
	if cfg.Helper.Binary != "/usr/libexec/hal-helper" {
		t.Errorf("Helper.Binary = %q, want default", cfg.Helper.Binary)
	}
	if cfg.Helper.GracefulTimeout != 10*time.Second {
		t.Errorf("Helper.GracefulTimeout = %v, want 10s", cfg.Helper.GracefulTimeout)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "service: [unterminated"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HALBRIDGE_HAL_MODULE_ID", "voip")
	t.Setenv("HALBRIDGE_MQTT_HOST", "broker.internal")
	t.Setenv("HALBRIDGE_HELPER_BINARY", "/tmp/helper")

	cfg, err := Load(writeConfig(t, "service:\n  id: x\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HAL.ModuleID != "voip" {
		t.Errorf("HAL.ModuleID = %q, want %q", cfg.HAL.ModuleID, "voip")
	}
	if cfg.MQTT.Broker.Host != "broker.internal" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.internal")
	}
	if cfg.Helper.Binary != "/tmp/helper" {
		t.Errorf("Helper.Binary = %q, want %q", cfg.Helper.Binary, "/tmp/helper")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "empty module id",
			mutate: func(c *Config) { c.HAL.ModuleID = "" },
		},
		{
			name:   "helper enabled without binary",
			mutate: func(c *Config) { c.Helper.Binary = "" },
		},
		{
			name:   "qos out of range",
			mutate: func(c *Config) { c.MQTT.QoS = 3 },
		},
		{
			name:   "broker port out of range",
			mutate: func(c *Config) { c.MQTT.Broker.Port = 99999 },
		},
		{
			name:   "influxdb enabled without url",
			mutate: func(c *Config) { c.InfluxDB.Enabled = true },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error, got nil")
			}
		})
	}
}

func TestBusAddress(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.BusAddress(); got != "tcp://localhost:1883" {
		t.Errorf("BusAddress() = %q, want %q", got, "tcp://localhost:1883")
	}

	cfg.MQTT.Broker.TLS = true
	cfg.MQTT.Broker.Host = "broker"
	cfg.MQTT.Broker.Port = 8883
	if got := cfg.BusAddress(); got != "ssl://broker:8883" {
		t.Errorf("BusAddress() = %q, want %q", got, "ssl://broker:8883")
	}
}
