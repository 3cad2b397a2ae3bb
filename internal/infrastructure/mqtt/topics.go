package mqtt

import "fmt"

// Topic prefixes for the HAL bridge bus surface.
//
// The parameter RPC uses the request/response scheme:
//
//	halbridge/request/parameters/{request_id}
//	halbridge/response/parameters/{request_id}
const (
	// TopicPrefix is the base for all HAL bridge topics.
	TopicPrefix = "halbridge"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "halbridge/system"

	// TopicPrefixHelper is the base for helper process topics.
	TopicPrefixHelper = "halbridge/helper"
)

// Topics provides builders for HAL bridge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// ParameterRequest returns the topic a client publishes a parameter
// request on.
//
// Example: halbridge/request/parameters/req-abc123
func (Topics) ParameterRequest(requestID string) string {
	return fmt.Sprintf("%s/request/parameters/%s", TopicPrefix, requestID)
}

// ParameterResponse returns the topic the gateway replies on for a
// given request.
//
// Example: halbridge/response/parameters/req-abc123
func (Topics) ParameterResponse(requestID string) string {
	return fmt.Sprintf("%s/response/parameters/%s", TopicPrefix, requestID)
}

// AllParameterRequests returns the subscription pattern covering every
// parameter request.
//
// Pattern: halbridge/request/parameters/#
func (Topics) AllParameterRequests() string {
	return fmt.Sprintf("%s/request/parameters/#", TopicPrefix)
}

// SystemStatus returns the daemon status topic (also the LWT topic).
//
// Example: halbridge/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// HelperStatus returns the topic the helper process publishes its
// liveness on.
//
// Example: halbridge/helper/status
func (Topics) HelperStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixHelper)
}
