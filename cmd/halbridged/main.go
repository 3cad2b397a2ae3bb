// halbridged - vendor HAL parameter bridge daemon
//
// halbridged exposes a vendor hardware module's parameter get/set
// surface over MQTT and supervises an optional companion helper
// process. Bus clients send requests on halbridge/request/parameters/+
// and receive one correlated reply each; the helper is spawned at load
// and torn down, signalled and reaped, before shutdown completes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soundbus/halbridge/internal/hal"
	"github.com/soundbus/halbridge/internal/infrastructure/config"
	"github.com/soundbus/halbridge/internal/infrastructure/influxdb"
	"github.com/soundbus/halbridge/internal/infrastructure/logging"
	"github.com/soundbus/halbridge/internal/infrastructure/mqtt"
	"github.com/soundbus/halbridge/internal/module"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting halbridged",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT, cfg.Service.ID)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", cfg.BusAddress(),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional call telemetry)
	var telemetry module.Telemetry
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		telemetry = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Register the hardware module. Without a vendor device a null
	// device backs the module so the bus surface stays testable.
	registry := hal.NewRegistry()
	if err := registry.Register(cfg.HAL.ModuleID, hal.NewNullDevice()); err != nil {
		return fmt.Errorf("registering hal module: %w", err)
	}
	log.Info("hal module registered", "module_id", cfg.HAL.ModuleID)

	// Load the bridge module: acquires the hal handle, registers the
	// parameter gateway and spawns the helper.
	mod, err := module.New(cfg, registry, mqttClient, log, telemetry)
	if err != nil {
		return fmt.Errorf("creating module: %w", err)
	}
	if err := mod.Load(ctx); err != nil {
		return fmt.Errorf("loading module: %w", err)
	}
	defer mod.Unload()

	// Verify the broker connection is healthy before settling in
	healthCtx, healthCancel := context.WithTimeout(ctx, 5*time.Second)
	err = mqttClient.HealthCheck(healthCtx)
	healthCancel()
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Module unload (gateway, helper, hal handle)
	// 2. InfluxDB (if enabled)
	// 3. MQTT

	log.Info("halbridged stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HALBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HALBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
