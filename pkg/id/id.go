// Package id issues the identifiers stamped on orders, fills and
// confirmation requests. They are ULIDs, so sorting by ID sorts by
// creation time and journal rows keyed on them stay in execution order.
package id

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// generator serializes access to a single monotonic entropy source, which
// keeps IDs minted within the same millisecond strictly increasing.
type generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var gen = newGenerator()

func newGenerator() *generator {
	seed := time.Now().UnixNano()
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err == nil {
		seed = int64(binary.BigEndian.Uint64(buf[:]))
	}
	return &generator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

// New returns the next ULID string.
func New() string {
	gen.mu.Lock()
	defer gen.mu.Unlock()

	u, err := ulid.New(ulid.Now(), gen.entropy)
	if err != nil {
		// ulid.New fails only on entropy exhaustion within a millisecond.
		panic(err)
	}
	return u.String()
}
