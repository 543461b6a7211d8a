package app

import "sync"

// clientLocks hands out one mutex per client id. Entries are dropped once no
// holder or waiter is left.
type clientLocks struct {
	mu    sync.Mutex
	locks map[string]*clientLock
}

type clientLock struct {
	mu   sync.Mutex
	refs int
}

func newClientLocks() *clientLocks {
	return &clientLocks{locks: make(map[string]*clientLock)}
}

// For returns a Locker serializing every caller that passes the same id.
func (c *clientLocks) For(id string) sync.Locker {
	return keyedLocker{set: c, id: id}
}

func (c *clientLocks) lock(id string) {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &clientLock{}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()
	l.mu.Lock()
}

func (c *clientLocks) unlock(id string) {
	c.mu.Lock()
	l := c.locks[id]
	l.refs--
	if l.refs == 0 {
		delete(c.locks, id)
	}
	c.mu.Unlock()
	l.mu.Unlock()
}

func (c *clientLocks) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}

type keyedLocker struct {
	set *clientLocks
	id  string
}

func (k keyedLocker) Lock()   { k.set.lock(k.id) }
func (k keyedLocker) Unlock() { k.set.unlock(k.id) }
