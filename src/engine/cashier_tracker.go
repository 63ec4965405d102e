package engine

import (
	"sync"

	"shop-sim-viewer/src/models"
)

// CashierStatusTracker maps cashier ids onto their displayed occupancy.
type CashierStatusTracker struct {
	mu       sync.RWMutex
	statuses map[string]models.CashierStatus
}

// -----------------------------------------------------------------------------

func NewCashierStatusTracker() *CashierStatusTracker {
	return &CashierStatusTracker{statuses: make(map[string]models.CashierStatus)}
}

// -----------------------------------------------------------------------------

// Initialize replaces the content with every id set to waiting.
func (t *CashierStatusTracker) Initialize(ids []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.statuses = make(map[string]models.CashierStatus, len(ids))
	for _, id := range ids {
		t.statuses[id] = models.CashierWaiting
	}
}

// -----------------------------------------------------------------------------

// SetStatus sets the status of id, adding it when unknown.
func (t *CashierStatusTracker) SetStatus(id string, status models.CashierStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[id] = status
}

// -----------------------------------------------------------------------------

func (t *CashierStatusTracker) Status(id string) (models.CashierStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.statuses[id]
	return s, ok
}

// -----------------------------------------------------------------------------

// Snapshot returns a copy of the map.
func (t *CashierStatusTracker) Snapshot() map[string]models.CashierStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]models.CashierStatus, len(t.statuses))
	for k, v := range t.statuses {
		out[k] = v
	}
	return out
}

// -----------------------------------------------------------------------------

func (t *CashierStatusTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.statuses)
}
