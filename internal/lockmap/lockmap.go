package lockmap

import "sync"

// LockMap is a registry of named mutexes created on demand. Entries are
// refcounted and removed once the last holder releases, so the map does not
// grow with the set of coordinates ever written.
type LockMap struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty lock registry.
func New() *LockMap {
	return &LockMap{locks: map[string]*entry{}}
}

// Lock acquires the named lock, blocking until it is available.
func (m *LockMap) Lock(name string) {
	m.mu.Lock()
	e, ok := m.locks[name]
	if !ok {
		e = &entry{}
		m.locks[name] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the named lock. Unlocking a name that is not held panics,
// matching sync.Mutex semantics.
func (m *LockMap) Unlock(name string) {
	m.mu.Lock()
	e, ok := m.locks[name]
	if !ok {
		m.mu.Unlock()
		panic("lockmap: unlock of unheld lock: " + name)
	}
	e.refs--
	if e.refs == 0 {
		delete(m.locks, name)
	}
	m.mu.Unlock()

	e.mu.Unlock()
}

// Run executes fn while holding the named lock.
func (m *LockMap) Run(name string, fn func() error) error {
	m.Lock(name)
	defer m.Unlock(name)
	return fn()
}
