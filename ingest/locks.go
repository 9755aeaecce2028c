package ingest

import "sync"

// documentLocks guards against two concurrent ingestions of the same
// document id. Locks are held for the whole ingestion run.
type documentLocks struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newDocumentLocks() *documentLocks {
	return &documentLocks{active: make(map[string]struct{})}
}

// acquire claims the document id. Returns false if it is already claimed.
func (l *documentLocks) acquire(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.active[id]; busy {
		return false
	}
	l.active[id] = struct{}{}
	return true
}

func (l *documentLocks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, id)
}
