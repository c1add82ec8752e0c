// Package id provides unique identifier generation utilities.
// This is the canonical source for ID generation across the codebase.
package id

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// UUID generates a UUID v4 (random).
// Returns a string in the format: xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx
func UUID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	// Set version (4) and variant bits per RFC 4122
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// Short generates a short random hex ID (16 characters).
// Suitable for user-facing IDs where brevity matters.
func Short() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

var (
	timeRandMu   sync.Mutex
	timeRandLast int64
)

// TimeRand generates a decimal ID from the current unix-millisecond clock
// plus a random offset. IDs are strictly increasing within a process, so
// bulk generation (e.g. re-iding an imported batch) never collides.
func TimeRand() string {
	timeRandMu.Lock()
	defer timeRandMu.Unlock()

	candidate := time.Now().UnixMilli() + randOffset(10000)
	if candidate <= timeRandLast {
		candidate = timeRandLast + 1 + randOffset(100)
	}
	timeRandLast = candidate
	return strconv.FormatInt(candidate, 10)
}

// randOffset returns a non-negative random int64 below max.
func randOffset(max int64) int64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	n := int64(binary.BigEndian.Uint64(b[:]) >> 1)
	return n % max
}
