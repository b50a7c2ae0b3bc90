package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"socialfeed/internal/pkg/logx"
)

// DefaultEvictInterval is how often the Manager looks for idle stores.
const DefaultEvictInterval = time.Minute

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Manager owns the Store of every live client session.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*entry

	idleTTL time.Duration
	now     func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	logger zerolog.Logger
}

// NewManager starts a Manager that evicts stores unused for idleTTL and without
// subscribers, checking every interval.
func NewManager(idleTTL, interval time.Duration) *Manager {
	m := &Manager{
		stores:  make(map[string]*entry),
		idleTTL: idleTTL,
		now:     time.Now,
		stop:    make(chan struct{}),
		logger:  logx.Component("SessionManager"),
	}

	m.wg.Add(1)
	go m.runEvictLoop(interval)

	return m
}

// Get returns the Store for sessionID, creating a signed-out one on first use.
func (m *Manager) Get(sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.stores[sessionID]
	if !ok {
		e = &entry{store: NewStore()}
		m.stores[sessionID] = e
		m.logger.Debug().Str("session_id", sessionID).Msg("Session store created.")
	}
	e.lastSeen = m.now()

	return e.store
}

// Lookup returns the Store for sessionID without creating or touching it.
func (m *Manager) Lookup(sessionID string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.stores[sessionID]
	if !ok {
		return nil, false
	}
	return e.store, true
}

// Len returns the number of live stores.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

func (m *Manager) runEvictLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if n := m.evictIdle(); n > 0 {
				m.logger.Info().Int("evicted", n).Msg("Idle session stores evicted.")
			}
		}
	}
}

// evictIdle removes stores idle past idleTTL that nobody is subscribed to.
func (m *Manager) evictIdle() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.idleTTL)
	evicted := 0
	for id, e := range m.stores {
		if e.lastSeen.Before(cutoff) && e.store.Subscribers() == 0 {
			delete(m.stores, id)
			evicted++
		}
	}
	return evicted
}

// Shutdown stops the eviction loop and waits for it to exit.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		close(m.stop)
		m.wg.Wait()
		m.logger.Info().Msg("Session manager shutdown complete.")
	})
}
