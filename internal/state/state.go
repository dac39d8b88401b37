// Package state owns the per-session loaded dataset. A session is created
// when a source is loaded and replaced wholesale on the next load; nothing
// inside it mutates after creation except the memo cache it owns.
package state

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cassiap/servers/internal/dataset"
	"github.com/cassiap/servers/internal/service"
)

// Session binds one loaded dataset to its resolved roles and load-time
// warnings. FilterState is request-scoped and deliberately absent here.
type Session struct {
	ID       string
	Dataset  *dataset.Dataset
	Roles    service.Assignment
	Warnings []string

	cache *dataset.Cache
}

// Store keeps live sessions. Sessions are independent; the lock only
// guards the map itself.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create builds a session around a loaded dataset, resolving roles and
// collecting warnings (column disambiguations from the load plus the
// missing-essential-roles warning when applicable).
func (s *Store) Create(ds *dataset.Dataset) *Session {
	roles := service.ResolveRoles(ds)

	warnings := append([]string{}, ds.Warnings...)
	if w := roles.MissingRolesWarning(); w != "" {
		warnings = append(warnings, w)
	}

	sess := &Session{
		ID:       uuid.NewString(),
		Dataset:  ds,
		Roles:    roles,
		Warnings: warnings,
		cache:    dataset.NewCache(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// CreateFromBytes loads (memoized) and wraps a raw payload. When replacing
// an existing session its cache is invalidated first, so a re-upload of a
// different file under the same session id never serves stale data.
func (s *Store) CreateFromBytes(replaceID, name string, data []byte) (*Session, error) {
	cache := dataset.NewCache()
	if replaceID != "" {
		if old, ok := s.Get(replaceID); ok {
			cache = old.cache
			// A genuinely new file evicts the old one; re-uploading the
			// same bytes stays a cache hit.
			if !cache.Contains(dataset.Fingerprint(name, data)) {
				cache.Invalidate()
			}
		}
	}

	ds, err := cache.Load(name, data)
	if err != nil {
		return nil, err
	}

	sess := s.Create(ds)
	sess.cache = cache

	if replaceID != "" && replaceID != sess.ID {
		s.Delete(replaceID)
	}
	return sess, nil
}

// Get returns a session by id.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// MustGet returns a session or a descriptive error for the HTTP boundary.
func (s *Store) MustGet(id string) (*Session, error) {
	sess, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("session %q not found", id)
	}
	return sess, nil
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
