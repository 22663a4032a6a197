package revoke

import (
	"context"
	"sync"
)

// MemoryList is a process-local List for tests and single-node deployments.
type MemoryList struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewMemoryList returns an empty in-memory revocation list.
func NewMemoryList() *MemoryList {
	return &MemoryList{ids: make(map[string]struct{})}
}

// Revoke marks a token ID as revoked.
func (l *MemoryList) Revoke(tokenID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids[tokenID] = struct{}{}
}

// Revoked implements List.
func (l *MemoryList) Revoked(ctx context.Context, tokenID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.ids[tokenID]
	return ok, nil
}

var _ List = (*MemoryList)(nil)
