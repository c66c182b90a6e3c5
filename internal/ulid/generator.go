// Package ulid generates the ids of blocks and column groups.
package ulid

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
)

var (
	mu        sync.RWMutex
	generator = newULID
)

func newULID() string {
	return ulid.Make().String()
}

// ValidID reports whether id is a ULID. Documents may carry ids from
// elsewhere; only generated ones are guaranteed to pass.
func ValidID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

// GenerateID returns a new id, unique within the process.
func GenerateID() string {
	mu.RLock()
	defer mu.RUnlock()
	return generator()
}

func ResetGenerator() {
	mu.Lock()
	defer mu.Unlock()
	generator = newULID
}

// MockGenerator makes GenerateID return prefix-1, prefix-2, and so on.
func MockGenerator(prefix string) {
	var counter atomic.Int64

	mu.Lock()
	defer mu.Unlock()
	generator = func() string {
		return prefix + "-" + strconv.FormatInt(counter.Add(1), 10)
	}
}
