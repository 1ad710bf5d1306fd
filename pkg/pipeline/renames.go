package pipeline

import (
	"fmt"
	"sync"
)

// renameMap records original→new asset names for destructively
// transformed assets. Keys are write-once: each asset is matched at
// most once, so a duplicate key is a programming error and is
// rejected. Writes happen concurrently as outcomes settle; reads only
// after the orchestrator's join barrier.
type renameMap struct {
	mu      sync.Mutex
	entries map[string]string
}

func newRenameMap() *renameMap {
	return &renameMap{entries: make(map[string]string)}
}

// record adds a write-once entry.
func (r *renameMap) record(original, renamed string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[original]; ok {
		return fmt.Errorf("rename for %s already recorded (→ %s)", original, existing)
	}
	r.entries[original] = renamed
	return nil
}

// snapshot returns a copy of all entries. Call only after every
// transform has settled.
func (r *renameMap) snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make(map[string]string, len(r.entries))
	for original, renamed := range r.entries {
		entries[original] = renamed
	}
	return entries
}
