// Package uid provides short unique identifiers for the mako maintenance
// tools. Every batch run is tagged with one so interleaved log output from
// concurrent runs on a shared host can be told apart.
package uid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New generates a 16-character hex string suitable for tagging a single
// batch run in log output, using crypto/rand.
func New() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// Fallback: timestamp-based ID. Should never happen with crypto/rand.
		return fmt.Sprintf("%016x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
