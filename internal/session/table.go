// Package session tracks which nickname, if any, each open connection is
// logged in as.
package session

import (
	"errors"
	"sync"
)

// ErrUnknownConnection is returned for a connection id that was never opened
// or has already been closed
var ErrUnknownConnection = errors.New("unknown connection")

// Table maps connection ids to their bound nickname. An entry exists for
// exactly as long as its connection is open.
type Table struct {
	mu       sync.RWMutex
	sessions map[string]string // connID -> nickname, "" when anonymous
}

// NewTable creates an empty session table
func NewTable() *Table {
	return &Table{sessions: make(map[string]string)}
}

// Open registers a new anonymous session
func (t *Table) Open(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[connID] = ""
}

// Bind associates a nickname with the session, replacing any previous one
func (t *Table) Bind(connID, nickname string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.sessions[connID]; !ok {
		return ErrUnknownConnection
	}
	t.sessions[connID] = nickname
	return nil
}

// Resolve returns the bound nickname. ok is false for an anonymous or
// unknown session.
func (t *Table) Resolve(connID string) (nickname string, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	nickname = t.sessions[connID]
	return nickname, nickname != ""
}

// Unbind returns the session to anonymous. It reports whether a nickname was
// bound; calling it on an anonymous session is a no-op.
func (t *Table) Unbind(connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	nickname, ok := t.sessions[connID]
	if !ok || nickname == "" {
		return false
	}
	t.sessions[connID] = ""
	return true
}

// Close forgets the session. The account it was bound to is not touched.
func (t *Table) Close(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, connID)
}

// Count returns the number of open sessions
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// CountAuthenticated returns the number of sessions bound to a nickname
func (t *Table) CountAuthenticated() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, nickname := range t.sessions {
		if nickname != "" {
			n++
		}
	}
	return n
}
