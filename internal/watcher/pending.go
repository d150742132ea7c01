// internal/watcher/pending.go
package watcher

import (
	"strings"
	"sync"
)

const defaultPendingCapacity = 256

// PendingRef is the provenance kept for a contract awaiting a
// responder follow-up.
type PendingRef struct {
	Sender    string
	MessageID string
}

// PendingSet tracks contracts recently mentioned in chat, waiting for
// the automated responder to comment on them. The set is bounded:
// when capacity is reached the oldest entry is evicted, so sustained
// load without a matching responder cannot grow it without limit.
type PendingSet struct {
	mu       sync.Mutex
	capacity int
	order    []string
	entries  map[string]PendingRef
}

// NewPendingSet creates a pending set with the given capacity.
// Non-positive capacities fall back to the default.
func NewPendingSet(capacity int) *PendingSet {
	if capacity <= 0 {
		capacity = defaultPendingCapacity
	}
	return &PendingSet{
		capacity: capacity,
		entries:  make(map[string]PendingRef, capacity),
	}
}

// Put records a contract as pending. Re-adding an existing contract
// refreshes its provenance without consuming extra capacity.
func (p *PendingSet) Put(contract string, ref PendingRef) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.entries[contract]; exists {
		p.entries[contract] = ref
		return
	}

	if len(p.order) >= p.capacity {
		oldest := p.order[0]
		p.order = p.order[1:]
		delete(p.entries, oldest)
	}

	p.order = append(p.order, contract)
	p.entries[contract] = ref
}

// Take finds the first pending contract contained in text, removes it
// and returns it with its provenance.
func (p *PendingSet) Take(text string) (string, PendingRef, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, contract := range p.order {
		if strings.Contains(text, contract) {
			ref := p.entries[contract]
			p.order = append(p.order[:i], p.order[i+1:]...)
			delete(p.entries, contract)
			return contract, ref, true
		}
	}
	return "", PendingRef{}, false
}

// Len returns the number of pending contracts.
func (p *PendingSet) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}
