// Package registry holds the authoritative table of in-flight requests and
// the admission counter for blocking-route capacity control.
//
// The registry is an explicitly owned object injected into both the HTTP
// adapter and the decision API; it is the only cluster-wide shared mutable
// state. The map lock is short-held, the counter is a single atomic, and
// every per-request transition happens under that request's own lock, so
// the registry scales to frequent brief access from many goroutines.
package registry

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/bruecke-dev/bruecke/pkg/api"
)

// Registry maps correlation IDs to pending requests and tracks how many
// synchronous workers are currently occupied. Passive subscription
// connections are deliberately excluded from the counter so they cannot
// starve the blocking-request budget.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*PendingRequest

	// active counts requests occupying a bounded-wait worker slot.
	active atomic.Int64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*PendingRequest),
	}
}

// Register adds a pending request to the table.
func (r *Registry) Register(p *PendingRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[p.ID] = p
}

// Get looks up a pending request for a host decision call. The second
// return is false for unknown IDs.
func (r *Registry) Get(id string) (*PendingRequest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.entries[id]
	return p, ok
}

// Remove deregisters a request. Returns false if the ID was not present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// Len reports the number of registered requests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// RemoveAll force-completes every entry, clears the table, and returns how
// many entries it completed. Invoked only at shutdown: plain requests
// receive a synthetic unavailable response, open streams are closed, and
// every waiter is woken. The admission counter is deliberately not reset;
// each blocked worker decrements it itself as it unwinds, which is
// race-free regardless of how many are still in flight.
func (r *Registry) RemoveAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	resp := shutdownResponse()
	n := len(r.entries)
	for _, p := range r.entries {
		p.shutdown(resp)
	}
	r.entries = make(map[string]*PendingRequest)
	return n
}

func shutdownResponse() Response {
	body, _ := json.Marshal(api.ErrorResponse{Error: api.NewShuttingDownError()})
	return Response{
		Status:  http.StatusServiceUnavailable,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}
}

// TryAcquire reserves one blocking worker slot. The reserve is a single
// atomic increment with rollback on overflow, so simultaneous arrivals
// can never push the count past the limit. The caller releases the slot
// with DecrementActive.
func (r *Registry) TryAcquire(limit int) bool {
	if r.active.Add(1) > int64(limit) {
		r.active.Add(-1)
		return false
	}
	return true
}

// IncrementActive marks one blocking worker slot occupied.
func (r *Registry) IncrementActive() {
	r.active.Add(1)
}

// DecrementActive releases one blocking worker slot.
func (r *Registry) DecrementActive() {
	r.active.Add(-1)
}

// ActiveCount reports the number of occupied blocking worker slots.
func (r *Registry) ActiveCount() int {
	return int(r.active.Load())
}

// IsAtCapacity reports whether admitting another blocking request would
// exceed the limit. Checked before the host is ever notified.
func (r *Registry) IsAtCapacity(limit int) bool {
	return r.active.Load() >= int64(limit)
}
