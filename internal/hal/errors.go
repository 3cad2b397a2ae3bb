package hal

import "errors"

// Domain-specific errors for hardware module handling.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrModuleNotFound is returned when acquiring a module ID that was
	// never registered. The usual cause is the vendor integration not
	// having loaded before the bridge.
	ErrModuleNotFound = errors.New("hal: hardware module not found")

	// ErrModuleExists is returned when registering a module ID twice.
	ErrModuleExists = errors.New("hal: hardware module already registered")

	// ErrReleased is returned when releasing a handle more times than it
	// was acquired.
	ErrReleased = errors.New("hal: module handle already released")

	// ErrMalformedParams is returned by the parameter codec for text
	// that does not follow the key=value;key=value form.
	ErrMalformedParams = errors.New("hal: malformed parameter string")
)
