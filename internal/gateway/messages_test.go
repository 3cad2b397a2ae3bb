package gateway

import (
	"testing"
)

func TestParseRequest(t *testing.T) {
	payload := []byte(`{"request_id":"r1","action":"get_parameters","keys":"volume"}`)
	req, err := ParseRequest(payload)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.RequestID != "r1" {
		t.Errorf("RequestID = %q, want %q", req.RequestID, "r1")
	}
	if req.Keys == nil || *req.Keys != "volume" {
		t.Errorf("Keys = %v, want %q", req.Keys, "volume")
	}
	if req.KeyValuePairs != nil {
		t.Errorf("KeyValuePairs = %v, want nil", req.KeyValuePairs)
	}
}

func TestParseRequest_EmptyKeysDistinctFromMissing(t *testing.T) {
	req, err := ParseRequest([]byte(`{"request_id":"r1","action":"get_parameters","keys":""}`))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Keys == nil {
		t.Fatal("Keys = nil, want present empty string")
	}
	if *req.Keys != "" {
		t.Errorf("Keys = %q, want empty", *req.Keys)
	}
}

func TestParseRequest_Invalid(t *testing.T) {
	if _, err := ParseRequest([]byte("{broken")); err == nil {
		t.Error("ParseRequest() error = nil, want parse failure")
	}
}

func TestRequestIDFromTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"halbridge/request/parameters/req-9", "req-9"},
		{"halbridge/request/parameters/", ""},
		{"bare", "bare"},
	}

	for _, tt := range tests {
		if got := RequestIDFromTopic(tt.topic); got != tt.want {
			t.Errorf("RequestIDFromTopic(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}

func TestNewGetResponse_CarriesEmptyAnswer(t *testing.T) {
	resp := NewGetResponse("r1", "")
	if !resp.Success {
		t.Error("Success = false, want true")
	}
	if resp.KeyValuePairs == nil {
		t.Fatal("KeyValuePairs = nil, want present")
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("r2", ErrCodeDeviceFailure, "set_parameters failed: -22")
	if resp.Success {
		t.Error("Success = true, want false")
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeDeviceFailure {
		t.Errorf("Error = %+v, want code %s", resp.Error, ErrCodeDeviceFailure)
	}
	if resp.KeyValuePairs != nil {
		t.Error("KeyValuePairs present on error response")
	}
}
