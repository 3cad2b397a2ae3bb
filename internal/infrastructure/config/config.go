package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the HAL bridge daemon.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	HAL      HALConfig      `yaml:"hal"`
	Helper   HelperConfig   `yaml:"helper"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServiceConfig contains daemon-level identification.
type ServiceConfig struct {
	ID string `yaml:"id"`
}

// HALConfig selects which hardware module instance the gateway binds.
type HALConfig struct {
	// ModuleID names the hardware module to acquire at load time.
	// Default: "primary"
	ModuleID string `yaml:"module_id"`
}

// HelperConfig contains settings for the auxiliary helper process.
type HelperConfig struct {
	// Enabled controls whether the helper process is spawned at all.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Binary is the install path of the helper executable.
	// Default: "/usr/libexec/hal-helper"
	Binary string `yaml:"binary"`

	// GracefulTimeout is how long to wait for the helper to exit after
	// SIGTERM before escalating to SIGKILL.
	// Default: 10s
	GracefulTimeout time.Duration `yaml:"graceful_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains optional call telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HALBRIDGE_SECTION_KEY
// For example: HALBRIDGE_MQTT_HOST, HALBRIDGE_HAL_MODULE_ID
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			ID: "halbridge-01",
		},
		HAL: HALConfig{
			ModuleID: "primary",
		},
		Helper: HelperConfig{
			Enabled:         true,
			Binary:          "/usr/libexec/hal-helper",
			GracefulTimeout: 10 * time.Second,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "halbridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HALBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// HAL
	if v := os.Getenv("HALBRIDGE_HAL_MODULE_ID"); v != "" {
		cfg.HAL.ModuleID = v
	}

	// Helper
	if v := os.Getenv("HALBRIDGE_HELPER_BINARY"); v != "" {
		cfg.Helper.Binary = v
	}

	// MQTT
	if v := os.Getenv("HALBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HALBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HALBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("HALBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Service validation
	if c.Service.ID == "" {
		errs = append(errs, "service.id is required")
	}

	// HAL validation
	if c.HAL.ModuleID == "" {
		errs = append(errs, "hal.module_id is required")
	}

	// Helper validation
	if c.Helper.Enabled && c.Helper.Binary == "" {
		errs = append(errs, "helper.binary is required when helper.enabled is true")
	}
	if c.Helper.GracefulTimeout < 0 {
		errs = append(errs, "helper.graceful_timeout must not be negative")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb.enabled is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// BusAddress returns the broker address string handed to external
// consumers of the bus, including the spawned helper process.
// Example: "tcp://localhost:1883"
func (c *Config) BusAddress() string {
	scheme := "tcp"
	if c.MQTT.Broker.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.MQTT.Broker.Host, c.MQTT.Broker.Port)
}
