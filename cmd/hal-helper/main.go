// hal-helper - companion helper process for halbridged
//
// The helper is spawned by the daemon with the message bus address as
// its only argument. It connects to the same broker, announces itself,
// and publishes a periodic heartbeat until it receives SIGTERM. Its
// stdout is captured by the daemon and folded into the daemon's log.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	// heartbeatTopic is where the helper announces liveness.
	heartbeatTopic = "halbridge/helper/heartbeat"

	// heartbeatInterval is how often a heartbeat is published.
	heartbeatInterval = 30 * time.Second

	// connectTimeout bounds the initial broker connection.
	connectTimeout = 10 * time.Second
)

// heartbeat is the payload published on each interval.
type heartbeat struct {
	SessionID string `json:"session_id"`
	PID       int    `json:"pid"`
	Uptime    int64  `json:"uptime_seconds"`
	Timestamp string `json:"timestamp"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: hal-helper <bus-address>")
	}
	busAddress := os.Args[1]

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sessionID := uuid.NewString()
	fmt.Printf("hal-helper starting session=%s pid=%d bus=%s\n", sessionID, os.Getpid(), busAddress)

	opts := pahomqtt.NewClientOptions().
		AddBroker(busAddress).
		SetClientID("hal-helper-" + sessionID[:8]).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetCleanSession(true)

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("connecting to %s: timeout", busAddress)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to %s: %w", busAddress, err)
	}
	defer client.Disconnect(250)

	fmt.Println("hal-helper connected")

	start := time.Now()
	publish := func() {
		hb := heartbeat{
			SessionID: sessionID,
			PID:       os.Getpid(),
			Uptime:    int64(time.Since(start).Seconds()),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		payload, err := json.Marshal(hb)
		if err != nil {
			fmt.Printf("hal-helper marshal heartbeat failed: %v\n", err)
			return
		}
		t := client.Publish(heartbeatTopic, 0, false, payload)
		if t.WaitTimeout(connectTimeout) && t.Error() != nil {
			fmt.Printf("hal-helper heartbeat publish failed: %v\n", t.Error())
		}
	}
	publish()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("hal-helper received shutdown signal, exiting")
			return nil
		case <-ticker.C:
			publish()
		}
	}
}
