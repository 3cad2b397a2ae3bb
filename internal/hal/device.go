package hal

import "sync"

// Device return codes for SetParameters, mirroring the vendor HAL
// convention of zero on success and a negative errno on failure.
const (
	// StatusOK indicates the device accepted the parameters.
	StatusOK = 0

	// StatusInvalid indicates the device rejected the parameter text.
	StatusInvalid = -22 // -EINVAL
)

// Device is the parameter surface of a vendor hardware device.
//
// Both methods operate on the flat text encoding described in the
// params codec. Implementations are not required to be safe for
// concurrent use; callers serialize access through the owning Module's
// lock.
type Device interface {
	// GetParameters queries the device for the given key list
	// ("key1;key2") and returns the matching encoded pairs. An empty
	// result is valid and means the device had nothing to report.
	GetParameters(keys string) string

	// SetParameters applies the encoded pairs to the device. Returns
	// StatusOK on success or a non-zero device code on failure.
	SetParameters(pairs string) int
}

// NullDevice is an in-memory Device used when no vendor implementation
// is registered, and in tests. Parameters set on it are stored and
// handed back verbatim on the next matching get.
type NullDevice struct {
	mu     sync.Mutex
	values Params
}

// NewNullDevice creates an empty NullDevice.
func NewNullDevice() *NullDevice {
	return &NullDevice{
		values: make(Params),
	}
}

// GetParameters returns the stored pairs for the requested keys.
// Unknown keys are omitted from the result.
func (d *NullDevice) GetParameters(keys string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := make(Params)
	for _, key := range ParseKeys(keys) {
		if value, ok := d.values[key]; ok {
			result[key] = value
		}
	}
	return result.Format()
}

// SetParameters stores the given pairs. Malformed text is rejected
// with StatusInvalid and leaves the stored values untouched.
func (d *NullDevice) SetParameters(pairs string) int {
	parsed, err := ParseParams(pairs)
	if err != nil {
		return StatusInvalid
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for key, value := range parsed {
		d.values[key] = value
	}
	return StatusOK
}
