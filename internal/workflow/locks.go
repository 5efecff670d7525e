package workflow

import "sync"

// planLocks serializes transitions per plan id. Locks are never removed; the
// set of plans under concurrent review is small and bounded by active users.
type planLocks struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func newPlanLocks() *planLocks {
	return &planLocks{locks: map[uint64]*sync.Mutex{}}
}

func (p *planLocks) lock(planID uint64) func() {
	p.mu.Lock()
	l, ok := p.locks[planID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[planID] = l
	}
	p.mu.Unlock()
	l.Lock()
	return l.Unlock
}
