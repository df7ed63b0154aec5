// Package registry keeps the set of currently connected clients, keyed by
// connection id, together with the display name each one has chosen.
package registry

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
)

var (
	// ErrNotFound is returned when no entry exists for a connection id.
	ErrNotFound = errors.New("connection not found")

	// ErrDuplicateID is returned when inserting an id that is already registered.
	ErrDuplicateID = errors.New("duplicate connection id")
)

// Entry is the state tracked for one open connection.
type Entry struct {
	ID       string
	Username string
	// Handle is the transport's reference to the session. The registry only
	// stores it.
	Handle any

	seq uint64
}

// DisplayName returns the username when one is set, otherwise the id. An
// empty username counts as unset.
func (e Entry) DisplayName() string {
	if e.Username != "" {
		return e.Username
	}
	return e.ID
}

// User is one element of a ListAll snapshot.
type User struct {
	ID          string
	DisplayName string
}

// Registry maps connection ids to entries. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	nextSeq uint64
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Insert registers a new connection with no username.
func (r *Registry) Insert(id string, handle any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return fmt.Errorf("insert %q: %w", id, ErrDuplicateID)
	}

	r.nextSeq++
	r.entries[id] = &Entry{ID: id, Handle: handle, seq: r.nextSeq}
	return nil
}

// Remove deletes the entry for id and returns it as it was before removal.
func (r *Registry) Remove(id string) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("remove %q: %w", id, ErrNotFound)
	}
	delete(r.entries, id)
	return *entry, nil
}

// Get returns a copy of the entry for id.
func (r *Registry) Get(id string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return *entry, nil
}

// SetUsername overwrites the username of id unconditionally and returns the
// display name the connection had before the change. Setting "" clears the
// name, so the id is displayed again.
func (r *Registry) SetUsername(id, username string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return "", fmt.Errorf("set username %q: %w", id, ErrNotFound)
	}

	old := entry.DisplayName()
	entry.Username = username
	return old, nil
}

// ClaimUsername sets the username of id only if none is set yet. The check and
// the write happen under one lock. The returned entry reflects the outcome.
func (r *Registry) ClaimUsername(id, username string) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("claim username %q: %w", id, ErrNotFound)
	}

	if entry.Username == "" {
		entry.Username = username
	}
	return *entry, nil
}

// Size returns the number of registered connections.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ListAll returns a snapshot of every connection with its display name.
// Entries come back in insertion order, but callers should not rely on it.
func (r *Registry) ListAll() []User {
	r.mu.RLock()
	entries := lo.MapToSlice(r.entries, func(_ string, e *Entry) Entry { return *e })
	r.mu.RUnlock()

	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.seq, b.seq)
	})

	return lo.Map(entries, func(e Entry, _ int) User {
		return User{ID: e.ID, DisplayName: e.DisplayName()}
	})
}

// Clear drops every entry and returns how many were removed.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.entries)
	r.entries = make(map[string]*Entry)
	return n
}
