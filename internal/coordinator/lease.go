package coordinator

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ericyong81/nova-trader/internal/types"
)

// LeaseRegistry grants at most one in-flight action per trade key.
// A signal that arrives while the same (strategy, kind) pair is still
// working is turned away instead of queued; webhook senders re-fire.
type LeaseRegistry struct {
	mu     sync.Mutex
	leases map[types.TradeKey]uuid.UUID
}

// NewLeaseRegistry creates an empty lease registry.
func NewLeaseRegistry() *LeaseRegistry {
	return &LeaseRegistry{leases: make(map[types.TradeKey]uuid.UUID)}
}

// TryAcquire attempts to take the lease for key without blocking.
// Returns the holder handle and true on success, false if the key is
// already held.
func (r *LeaseRegistry) TryAcquire(key types.TradeKey) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.leases[key]; held {
		return uuid.Nil, false
	}

	handle := uuid.New()
	r.leases[key] = handle
	return handle, true
}

// Release frees the lease for key if handle is the current holder.
// A stale handle is ignored so a late release can never evict a newer
// owner.
func (r *LeaseRegistry) Release(key types.TradeKey, handle uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.leases[key] == handle {
		delete(r.leases, key)
	}
}

// Held reports whether any action currently holds the key.
func (r *LeaseRegistry) Held(key types.TradeKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, held := r.leases[key]
	return held
}
