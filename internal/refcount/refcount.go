// SPDX-License-Identifier: MPL-2.0

// Package refcount keeps reference counts for C-allocated objects that carry
// no counter field of their own. Objects are identified by address, which is
// only sound because the memory is allocated outside the Go heap and never
// moves while registered.
//
// Every operation is safe to call from any thread. None of them fail: an
// unknown identity is treated as an object that is already gone.
package refcount

import (
	"sync"
)

type (
	// ID is the address of a registered object.
	ID = uintptr

	// Table maps live object identities to their counts. The zero value is
	// ready to use.
	Table struct {
		mu     sync.Mutex
		counts map[ID]uint64
	}
)

// Default returns the process-wide table used by the C callbacks. It is
// created on first use and never torn down, so it outlives every object.
var Default = sync.OnceValue(func() *Table { return &Table{} })

// Register starts tracking id with a count of one. Registering an id that is
// already live resets its count; constructors must register fresh memory.
func (t *Table) Register(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.counts == nil {
		t.counts = make(map[ID]uint64)
	}
	t.counts[id] = 1
}

// AddRef increments the count of a live id. Unknown ids are ignored.
func (t *Table) AddRef(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n, ok := t.counts[id]; ok {
		t.counts[id] = n + 1
	}
}

// Release decrements the count of id. When the count reaches zero the entry
// is removed in the same critical section and freed is true; the caller then
// owns the only remaining reference to the memory and must free it. Unknown
// ids report false.
func (t *Table) Release(id ID) (freed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.counts[id]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(t.counts, id)
		return true
	}
	t.counts[id] = n - 1
	return false
}

// HasOneRef reports whether id is live with a count of exactly one.
func (t *Table) HasOneRef(id ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.counts[id] == 1
}

// HasAtLeastOneRef reports whether id is live.
func (t *Table) HasAtLeastOneRef(id ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.counts[id]
	return ok
}

// Count returns the current count of id, or zero when it is not live.
func (t *Table) Count(id ID) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.counts[id]
}

// Len returns the number of live objects.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.counts)
}
