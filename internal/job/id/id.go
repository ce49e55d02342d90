// Package id provides unique identifier generation for jobs.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Generate creates a new job ID with the given kind prefix.
// Format: <prefix>_<unix-millis>_<random>
// Example: img_1709294400123_a1b2c3d4
func Generate(prefix string) string {
	timestamp := time.Now().UnixMilli()
	random := make([]byte, 4)
	if _, err := rand.Read(random); err != nil {
		// Fallback to timestamp only if crypto/rand fails
		return fmt.Sprintf("%s_%d", prefix, timestamp)
	}
	return fmt.Sprintf("%s_%d_%s", prefix, timestamp, hex.EncodeToString(random))
}
