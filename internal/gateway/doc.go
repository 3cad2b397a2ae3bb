// Package gateway serves HAL parameter get/set requests over the
// message bus.
//
// Each request is answered exactly once on its correlated response
// topic. Device calls are serialized through the module handle's lock,
// and malformed requests are rejected before the device is touched.
package gateway
