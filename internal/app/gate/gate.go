/*
Package gate decides whether a client sees the auth screen or the feed.

A Gate is mounted on a session store for the lifetime of one view (an HTML render or a
websocket connection). It starts Unauthenticated, follows every identity notification
from the store, and releases its subscription exactly once on Unmount.
*/
package gate

import (
	"sync"

	"socialfeed/internal/app/session"
	"socialfeed/internal/app/user"
)

// State is the gate's current branch.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

// String returns the lower-case state name used on the wire.
func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// MarshalText encodes the state as its name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// View is what the client renders: the state and, when authenticated, the identity.
type View struct {
	State State          `json:"state"`
	User  *user.Identity `json:"user,omitempty"`
}

// Source is the subscription side of a session store.
type Source interface {
	Subscribe(l session.Listener) (unsubscribe func())
}

// Gate is safe for concurrent use.
type Gate struct {
	mu          sync.Mutex
	view        View
	unmounted   bool
	unsubscribe func()
	once        sync.Once

	onChange func(View)
}

// Mount subscribes a new Gate to src. onChange, if not nil, is called with the new view
// after every notification received while mounted.
func Mount(src Source, onChange func(View)) *Gate {
	g := &Gate{onChange: onChange}

	unsubscribe := src.Subscribe(g.receive)

	g.mu.Lock()
	g.unsubscribe = unsubscribe
	g.mu.Unlock()

	return g
}

// View returns the current view.
func (g *Gate) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	return View{State: g.view.State, User: g.view.User.Clone()}
}

// Unmount releases the subscription. Later calls do nothing, and notifications that
// race with Unmount are dropped.
func (g *Gate) Unmount() {
	g.once.Do(func() {
		g.mu.Lock()
		g.unmounted = true
		unsubscribe := g.unsubscribe
		g.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}
	})
}

func (g *Gate) receive(identity *user.Identity) {
	g.mu.Lock()
	if g.unmounted {
		g.mu.Unlock()
		return
	}

	if identity != nil {
		g.view = View{State: Authenticated, User: identity.Clone()}
	} else {
		g.view = View{State: Unauthenticated}
	}
	v := View{State: g.view.State, User: g.view.User.Clone()}
	onChange := g.onChange
	g.mu.Unlock()

	if onChange != nil {
		onChange(v)
	}
}
