package idhash

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptorand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Monotonic keeps IDs from the same millisecond increasing.
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// NewRunID returns a ULID for a run created at t.
// Run IDs sort lexicographically by creation time.
func NewRunID(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t.UTC()), mono).String()
}

// RunTime returns the creation time encoded in a run ID.
func RunTime(runID string) (time.Time, error) {
	id, err := ulid.ParseStrict(runID)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(id.Time()).UTC(), nil
}
