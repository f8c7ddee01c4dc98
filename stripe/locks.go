package stripe

import "sync"

// LockManager serializes webhook processing per organization, so concurrent
// deliveries for the same organization cannot interleave state updates.
type LockManager struct {
	locks sync.Map // orgID -> *sync.Mutex
}

// NewLockManager creates a new lock manager.
func NewLockManager() *LockManager {
	return &LockManager{}
}

// LockOrganization locks the mutex of the given organization and returns the
// unlock function.
func (lm *LockManager) LockOrganization(orgID string) func() {
	actual, _ := lm.locks.LoadOrStore(orgID, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
