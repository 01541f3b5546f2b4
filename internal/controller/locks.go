package controller

import "sync"

// keyedMutex serializes lifecycle operations per instance so overlapping
// calls never race the external runtime on one container.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// lock acquires the mutex for id and returns its release function.
func (k *keyedMutex) lock(id uint) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[uint]*sync.Mutex)
	}
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
