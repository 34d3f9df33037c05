package service

import "sync" // Mutexes

const lockStripes = 64

// userLocks serializes trades of the same user within this process.
// Users sharing a stripe also wait on each other, which is harmless.
type userLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *userLocks) lock(userID uint) (unlock func()) {
	m := &l.stripes[userID%lockStripes]
	m.Lock()
	return m.Unlock
}
