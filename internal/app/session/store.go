/*
Package session holds the authentication state of each client session.

A Store is the injectable state container for one session: it keeps the current
identity and notifies subscribers on every change. The Manager owns one Store per
session id and evicts stores that are idle and unobserved.
*/
package session

import (
	"sync"

	"socialfeed/internal/app/user"
)

// Listener receives the session identity after every change; nil means signed out.
// Listeners run synchronously and must not call back into the Store.
type Listener func(identity *user.Identity)

// Store is the authentication state of one client session. It is safe for concurrent use.
type Store struct {
	// notifyMu serializes publishes and initial deliveries so every listener sees
	// changes in the order they were made.
	notifyMu sync.Mutex

	mu        sync.RWMutex
	current   *user.Identity
	listeners map[uint64]Listener
	nextID    uint64
}

// NewStore returns a signed-out Store.
func NewStore() *Store {
	return &Store{
		listeners: make(map[uint64]Listener),
	}
}

// Current returns a copy of the signed-in identity, or nil.
func (s *Store) Current() *user.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Publish replaces the session identity and notifies every subscriber.
// Publishing nil signs the session out.
func (s *Store) Publish(identity *user.Identity) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.current = identity.Clone()
	listeners := s.snapshotLocked()
	s.mu.Unlock()

	for _, l := range listeners {
		l(identity.Clone())
	}
}

// SignOut clears the identity. Signing out a signed-out session still notifies.
func (s *Store) SignOut() {
	s.Publish(nil)
}

// UpdateProfile replaces display name and avatar of the signed-in identity and
// notifies subscribers. It reports false, without notifying, when signed out.
func (s *Store) UpdateProfile(displayName, avatarURL string) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return false
	}
	s.current.DisplayName = displayName
	s.current.AvatarURL = avatarURL
	updated := s.current.Clone()
	listeners := s.snapshotLocked()
	s.mu.Unlock()

	for _, l := range listeners {
		l(updated.Clone())
	}
	return true
}

// Subscribe registers l and immediately delivers the current identity to it as the
// first notification. The returned function unsubscribes; calling it again is a no-op.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	current := s.current.Clone()
	s.mu.Unlock()

	l(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Store) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

func (s *Store) snapshotLocked() []Listener {
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	return listeners
}
