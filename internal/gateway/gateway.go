package gateway

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/soundbus/halbridge/internal/hal"
	"github.com/soundbus/halbridge/internal/infrastructure/mqtt"
)

// Gateway exposes a HAL module's parameter surface over the message bus.
//
// It subscribes to halbridge/request/parameters/# and serves two actions:
// get_parameters passes the device's answer through verbatim (an empty
// answer stays an empty answer), set_parameters maps the device's integer
// result to success (zero) or a device-failure reply (non-zero). Malformed
// requests are answered with an error reply and never reach the device.
type Gateway struct {
	module    *hal.Module
	bus       BusClient
	logger    Logger
	telemetry Telemetry
	qos       byte
	debug     bool

	mu         sync.Mutex
	registered bool
}

// BusClient is the message bus surface the gateway needs.
type BusClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger is the logging surface the gateway needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	DebugEnabled() bool
}

// Telemetry records per-call measurements. Optional.
type Telemetry interface {
	WriteCallMetric(method string, duration time.Duration, success bool)
}

// Config holds gateway configuration.
type Config struct {
	// QoS for request subscriptions and response publishes.
	QoS byte
}

// New creates a gateway for the given HAL module handle.
// telemetry may be nil.
func New(cfg Config, module *hal.Module, bus BusClient, logger Logger, telemetry Telemetry) (*Gateway, error) {
	if module == nil {
		return nil, fmt.Errorf("module is required")
	}
	if bus == nil {
		return nil, fmt.Errorf("bus client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Gateway{
		module:    module,
		bus:       bus,
		logger:    logger,
		telemetry: telemetry,
		qos:       cfg.QoS,
		debug:     logger.DebugEnabled(),
	}, nil
}

// Register subscribes the gateway to parameter requests.
func (g *Gateway) Register() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.registered {
		return nil
	}

	topic := mqtt.Topics{}.AllParameterRequests()
	if err := g.bus.Subscribe(topic, g.qos, g.handleRequest); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	g.registered = true
	g.logger.Info("parameter gateway registered",
		"module_id", g.module.ID(),
		"topic", topic)
	return nil
}

// Unregister removes the request subscription. Safe to call when not
// registered and safe to call more than once.
func (g *Gateway) Unregister() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.registered {
		return nil
	}
	g.registered = false

	topic := mqtt.Topics{}.AllParameterRequests()
	if err := g.bus.Unsubscribe(topic); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", topic, err)
	}
	return nil
}

// handleRequest serves a single parameter request. A reply is published
// for every request, parseable or not; the request ID is recovered from
// the topic when the payload is unusable.
func (g *Gateway) handleRequest(topic string, payload []byte) error {
	req, err := ParseRequest(payload)
	if err != nil {
		g.logger.Warn("malformed parameter request",
			"topic", topic,
			"error", err)
		g.reply(NewErrorResponse(RequestIDFromTopic(topic), ErrCodeInvalidRequest, err.Error()))
		return nil
	}
	if req.RequestID == "" {
		req.RequestID = RequestIDFromTopic(topic)
	}

	switch req.Action {
	case ActionGetParameters:
		g.handleGet(req)
	case ActionSetParameters:
		g.handleSet(req)
	default:
		g.logger.Warn("unknown parameter action",
			"request_id", req.RequestID,
			"action", req.Action)
		g.reply(NewErrorResponse(req.RequestID, ErrCodeUnknownAction,
			fmt.Sprintf("unknown action: %q", req.Action)))
	}
	return nil
}

func (g *Gateway) handleGet(req RequestMessage) {
	if req.Keys == nil {
		g.reply(NewErrorResponse(req.RequestID, ErrCodeInvalidArguments,
			"missing string argument: keys"))
		return
	}

	start := time.Now()
	g.module.Lock()
	result := g.module.Device().GetParameters(*req.Keys)
	g.module.Unlock()
	g.recordCall(ActionGetParameters, start, true)

	if g.debug {
		g.logger.Debug("get parameters",
			"request_id", req.RequestID,
			"keys", *req.Keys,
			"result", result)
	} else {
		g.logger.Info("get parameters", "request_id", req.RequestID)
	}

	g.reply(NewGetResponse(req.RequestID, result))
}

func (g *Gateway) handleSet(req RequestMessage) {
	if req.KeyValuePairs == nil {
		g.reply(NewErrorResponse(req.RequestID, ErrCodeInvalidArguments,
			"missing string argument: key_value_pairs"))
		return
	}

	start := time.Now()
	g.module.Lock()
	ret := g.module.Device().SetParameters(*req.KeyValuePairs)
	g.module.Unlock()
	g.recordCall(ActionSetParameters, start, ret == hal.StatusOK)

	if g.debug {
		g.logger.Debug("set parameters",
			"request_id", req.RequestID,
			"key_value_pairs", *req.KeyValuePairs,
			"ret", ret)
	} else {
		g.logger.Info("set parameters", "request_id", req.RequestID)
	}

	if ret != hal.StatusOK {
		g.logger.Warn("device rejected parameters",
			"request_id", req.RequestID,
			"ret", ret)
		g.reply(NewErrorResponse(req.RequestID, ErrCodeDeviceFailure,
			fmt.Sprintf("set_parameters failed: %d", ret)))
		return
	}

	g.reply(NewSuccessResponse(req.RequestID))
}

// reply publishes a response. Publish failures are logged, not escalated:
// a broken reply path must not disturb the module.
func (g *Gateway) reply(resp ResponseMessage) {
	payload, err := json.Marshal(resp)
	if err != nil {
		g.logger.Error("marshal response failed",
			"request_id", resp.RequestID,
			"error", err)
		return
	}

	topic := mqtt.Topics{}.ParameterResponse(resp.RequestID)
	if err := g.bus.Publish(topic, payload, g.qos, false); err != nil {
		g.logger.Error("publish response failed",
			"request_id", resp.RequestID,
			"topic", topic,
			"error", err)
	}
}

func (g *Gateway) recordCall(method string, start time.Time, success bool) {
	if g.telemetry == nil {
		return
	}
	g.telemetry.WriteCallMetric(method, time.Since(start), success)
}
