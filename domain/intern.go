package domain

import "sync"

// Intern is a bidirectional name<->id map, used for interning property
// names and other universe-wide identifiers that need a dense integer
// handle without losing their human-readable name (spec §4.9, grounded
// on the original crate's intern.rs/bimap.rs).
type Intern struct {
	mu      sync.RWMutex
	forward map[string]uint32
	reverse []string
}

// NewIntern returns an empty intern table.
func NewIntern() *Intern {
	return &Intern{forward: make(map[string]uint32)}
}

// Get returns the id for name, interning it if this is the first time
// it has been seen.
func (in *Intern) Get(name string) uint32 {
	in.mu.RLock()
	if id, ok := in.forward[name]; ok {
		in.mu.RUnlock()
		return id
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.forward[name]; ok {
		return id
	}
	id := uint32(len(in.reverse))
	in.reverse = append(in.reverse, name)
	in.forward[name] = id
	return id
}

// Name resolves id back to its interned name.
func (in *Intern) Name(id uint32) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.reverse) {
		return "", false
	}
	return in.reverse[id], true
}

// Len returns the number of interned names.
func (in *Intern) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.reverse)
}
