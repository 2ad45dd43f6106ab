package realtime

import (
	"sort"
	"sync"
)

// Registry maps each online account to its single active connection.
// A later connection for the same account replaces the earlier one.
type Registry struct {
	mu        sync.RWMutex
	byAccount map[string]string // account id -> conn id
	byConn    map[string]string // conn id -> account id
}

func NewRegistry() *Registry {
	return &Registry{
		byAccount: make(map[string]string),
		byConn:    make(map[string]string),
	}
}

// Record binds accountID to connID. When the account was already bound, the
// previous connection id is returned and forgotten, so its later Remove is a
// no-op.
func (r *Registry) Record(accountID, connID string) (previous string, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byAccount[accountID]; ok && prev != connID {
		delete(r.byConn, prev)
		previous, replaced = prev, true
	}
	r.byAccount[accountID] = connID
	r.byConn[connID] = accountID
	return previous, replaced
}

// Remove deletes the entry owned by connID and reports which account it
// belonged to.
func (r *Registry) Remove(connID string) (accountID string, removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accountID, ok := r.byConn[connID]
	if !ok {
		return "", false
	}
	delete(r.byConn, connID)
	if r.byAccount[accountID] == connID {
		delete(r.byAccount, accountID)
	}
	return accountID, true
}

func (r *Registry) Lookup(accountID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.byAccount[accountID]
	return connID, ok
}

// Snapshot returns the online account ids in ascending order.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byAccount))
	for id := range r.byAccount {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAccount)
}
