package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Bus message types for the parameter RPC surface.
//
// Requests arrive on halbridge/request/parameters/{request_id} and the
// reply for each goes to halbridge/response/parameters/{request_id}.

// Actions understood by the gateway.
const (
	// ActionGetParameters queries the device for a key list.
	ActionGetParameters = "get_parameters"

	// ActionSetParameters applies encoded key/value pairs to the device.
	ActionSetParameters = "set_parameters"
)

// RequestMessage is a parameter request from a bus client.
// Topic: halbridge/request/parameters/{request_id}
type RequestMessage struct {
	// RequestID uniquely identifies this request for correlation.
	RequestID string `json:"request_id"`

	// Timestamp is when the request was issued (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Action is the requested operation: "get_parameters" or "set_parameters".
	Action string `json:"action"`

	// Keys is the semicolon-separated key list for get_parameters.
	// A pointer distinguishes a missing argument from an empty one.
	Keys *string `json:"keys,omitempty"`

	// KeyValuePairs is the encoded parameter text for set_parameters.
	KeyValuePairs *string `json:"key_value_pairs,omitempty"`
}

// ResponseMessage is the gateway's reply to a request.
// Topic: halbridge/response/parameters/{request_id}
type ResponseMessage struct {
	// RequestID is the ID from the original request.
	RequestID string `json:"request_id"`

	// Timestamp is when the response was generated (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Success indicates whether the request succeeded.
	Success bool `json:"success"`

	// KeyValuePairs carries the device's answer for get_parameters.
	// Present (possibly empty) on get success, absent otherwise.
	KeyValuePairs *string `json:"key_value_pairs,omitempty"`

	// Error contains error details (if failed).
	Error *ResponseError `json:"error,omitempty"`
}

// ResponseError contains error details for failed requests.
type ResponseError struct {
	// Code is the error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`
}

// Error codes for failed requests.
const (
	// ErrCodeInvalidRequest means the payload was not a parseable request.
	ErrCodeInvalidRequest = "INVALID_REQUEST"

	// ErrCodeInvalidArguments means a required string argument was missing.
	ErrCodeInvalidArguments = "INVALID_ARGUMENTS"

	// ErrCodeUnknownAction means the action is not one the gateway serves.
	ErrCodeUnknownAction = "UNKNOWN_ACTION"

	// ErrCodeDeviceFailure means the device rejected the call.
	ErrCodeDeviceFailure = "DEVICE_FAILURE"
)

// NewSuccessResponse creates an empty success reply (set_parameters).
func NewSuccessResponse(requestID string) ResponseMessage {
	return ResponseMessage{
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Success:   true,
	}
}

// NewGetResponse creates a success reply carrying the device's answer.
// An empty device result is forwarded as an empty string, never dropped.
func NewGetResponse(requestID, keyValuePairs string) ResponseMessage {
	return ResponseMessage{
		RequestID:     requestID,
		Timestamp:     time.Now().UTC(),
		Success:       true,
		KeyValuePairs: &keyValuePairs,
	}
}

// NewErrorResponse creates a failure reply.
func NewErrorResponse(requestID, code, message string) ResponseMessage {
	return ResponseMessage{
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Success:   false,
		Error: &ResponseError{
			Code:    code,
			Message: message,
		},
	}
}

// ParseRequest decodes a request payload.
func ParseRequest(payload []byte) (RequestMessage, error) {
	var req RequestMessage
	if err := json.Unmarshal(payload, &req); err != nil {
		return RequestMessage{}, fmt.Errorf("unmarshal request: %w", err)
	}
	return req, nil
}

// RequestIDFromTopic extracts the request ID from a request topic.
// The ID is the final topic segment; replies stay correlatable even
// when the payload itself cannot be parsed.
func RequestIDFromTopic(topic string) string {
	if idx := strings.LastIndexByte(topic, '/'); idx >= 0 {
		return topic[idx+1:]
	}
	return topic
}
