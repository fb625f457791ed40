package client

import "sync"

// userLocks мьютексы синхронизации и флаги сброса по пользователям
type userLocks struct {
	mu     sync.Mutex
	syncMu map[string]*sync.Mutex
	wiping map[string]bool
}

func newUserLocks() *userLocks {
	return &userLocks{
		syncMu: make(map[string]*sync.Mutex),
		wiping: make(map[string]bool),
	}
}

// syncLock мьютекс, сериализующий upload/download/wipe одного пользователя
func (l *userLocks) syncLock(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.syncMu[userID]
	if !ok {
		m = &sync.Mutex{}
		l.syncMu[userID] = m
	}
	return m
}

// tryWipe захватывает право на сброс; false если сброс уже идет
func (l *userLocks) tryWipe(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.wiping[userID] {
		return false
	}
	l.wiping[userID] = true
	return true
}

func (l *userLocks) releaseWipe(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.wiping, userID)
}
