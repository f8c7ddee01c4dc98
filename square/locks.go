package square

import "sync"

// LockManager serializes webhook processing per merchant, so concurrent
// redeliveries cannot interleave partial state updates.
type LockManager struct {
	locks sync.Map // merchantID -> *sync.Mutex
}

// NewLockManager creates a new lock manager.
func NewLockManager() *LockManager {
	return &LockManager{}
}

// AcquireLock locks the mutex of the given merchant and returns the unlock
// function.
func (lm *LockManager) AcquireLock(merchantID string) func() {
	actual, _ := lm.locks.LoadOrStore(merchantID, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
