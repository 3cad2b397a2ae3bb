// Package hal models the vendor hardware abstraction layer consumed by
// the parameter gateway.
//
// This package manages:
//   - A registry of named hardware modules ("primary", "voip", ...)
//   - Reference-counted module handles with a shared device lock
//   - The flat key=value;key=value parameter text codec
//   - A NullDevice stand-in for development and tests
//
// # Ownership
//
// The registry owns module entries for the process lifetime. Consumers
// acquire a handle at load time and release it at unload; the handle's
// lock is shared by every consumer of the same module, so a single
// device call is serialized across the whole process.
//
// The real vendor device lives behind the Device interface. Production
// deployments register an implementation that crosses into the vendor
// HAL; everything above this package is agnostic to which one is bound.
package hal
