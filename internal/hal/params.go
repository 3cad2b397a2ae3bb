package hal

import (
	"fmt"
	"sort"
	"strings"
)

// Params holds decoded key/value parameter pairs.
//
// The wire form is the flat text encoding used by vendor audio HALs:
// "key1=value1;key2=value2". The gateway forwards that text verbatim;
// this codec exists for device implementations and validation helpers
// that need to look inside it.
type Params map[string]string

// ParseParams decodes a parameter string.
//
// Empty input decodes to an empty set. A trailing separator is
// tolerated. A pair without '=' or with an empty key is malformed.
//
// Parameters:
//   - text: The encoded string, e.g. "routing=2;volume=0.5"
//
// Returns:
//   - Params: Decoded pairs
//   - error: ErrMalformedParams (wrapped with the offending pair)
func ParseParams(text string) (Params, error) {
	p := make(Params)
	if text == "" {
		return p, nil
	}

	for _, pair := range strings.Split(text, ";") {
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedParams, pair)
		}
		p[key] = value
	}
	return p, nil
}

// ParseKeys decodes a key list string ("key1;key2") into its keys.
//
// Empty segments are dropped. An empty input yields no keys.
func ParseKeys(text string) []string {
	var keys []string
	for _, key := range strings.Split(text, ";") {
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// Format encodes the pairs back to the wire form.
//
// Keys are sorted so the output is deterministic; vendor HALs do not
// attach meaning to pair order.
func (p Params) Format() string {
	if len(p) == 0 {
		return ""
	}

	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, key := range keys {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(p[key])
	}
	return sb.String()
}
