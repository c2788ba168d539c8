package archive

import (
	"sync"

	"github.com/taigrr/colorhash"
)

// lockStripes bounds the lock table; two variables sharing a stripe only
// serialise more than strictly needed.
const lockStripes = 256

// stripedLocks serialises work per key (a variable directory) without keeping a
// lock per key alive for the whole run.
type stripedLocks struct {
	mu [lockStripes]sync.Mutex
}

func stripe(key string) int {
	h := int(colorhash.HashString(key)) % lockStripes
	if h < 0 {
		h += lockStripes
	}
	return h
}

// lock acquires the stripe of key and returns its unlock function.
func (s *stripedLocks) lock(key string) func() {
	m := &s.mu[stripe(key)]
	m.Lock()
	return m.Unlock
}
