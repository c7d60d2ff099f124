// Package realm generates the single process-global realm id used to guard
// against loopback on buses that forward a message to every subscriber,
// including its own sender (spec §3, §5).
package realm

import (
	"sync"

	"github.com/google/uuid"
)

var (
	once sync.Once
	id   string
)

// ID returns the process-global realm id, generating it lazily on first use.
// It is an opaque value; callers must not parse it.
func ID() string {
	once.Do(func() {
		id = uuid.New().String()
	})
	return id
}
