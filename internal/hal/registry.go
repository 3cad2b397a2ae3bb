package hal

import (
	"fmt"
	"sync"
)

// Module is a handle to a named hardware module.
//
// The same *Module instance is shared by every consumer that acquires
// the same ID, so its lock serializes device access across all of them.
// Handles are reference counted: each successful Registry.Acquire must
// be paired with exactly one Release.
type Module struct {
	id     string
	device Device

	// mu serializes device calls across all holders of this handle.
	// Held only for the span of a single device call.
	mu sync.Mutex

	registry *Registry
}

// ID returns the module identifier (e.g., "primary").
func (m *Module) ID() string {
	return m.id
}

// Device returns the underlying device. Callers must hold the module
// lock while invoking device methods.
func (m *Module) Device() Device {
	return m.device
}

// Lock acquires the shared device lock.
func (m *Module) Lock() {
	m.mu.Lock()
}

// Unlock releases the shared device lock.
func (m *Module) Unlock() {
	m.mu.Unlock()
}

// Release returns the handle to the registry.
//
// Returns:
//   - error: ErrReleased if the handle was released more times than acquired
func (m *Module) Release() error {
	return m.registry.release(m.id)
}

// Registry holds the named hardware modules available to the bridge.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// entry tracks one registered module and its acquisition count.
type entry struct {
	module *Module
	refs   int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Register adds a device under the given module ID.
//
// Parameters:
//   - id: Module identifier (e.g., "primary")
//   - device: The device implementation backing the module
//
// Returns:
//   - error: ErrModuleExists if the ID is already taken
func (r *Registry) Register(id string, device Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return fmt.Errorf("%w: %q", ErrModuleExists, id)
	}

	r.entries[id] = &entry{
		module: &Module{id: id, device: device, registry: r},
	}
	return nil
}

// Acquire takes a reference to the named module.
//
// Parameters:
//   - id: Module identifier to look up
//
// Returns:
//   - *Module: Shared handle; release with Module.Release
//   - error: ErrModuleNotFound if no such module is registered
func (r *Registry) Acquire(id string) (*Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[id]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, id)
	}

	e.refs++
	return e.module, nil
}

// Refs returns the current acquisition count for a module ID.
// Unknown IDs report zero.
func (r *Registry) Refs(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, exists := r.entries[id]; exists {
		return e.refs
	}
	return 0
}

// release drops one reference to the named module.
func (r *Registry) release(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[id]
	if !exists {
		return fmt.Errorf("%w: %q", ErrModuleNotFound, id)
	}
	if e.refs == 0 {
		return fmt.Errorf("%w: %q", ErrReleased, id)
	}

	e.refs--
	return nil
}
