/*
Package feed is the authenticated screen. Feed content is not implemented yet; the
screen shows the signed-in profile and offers sign-out.
*/
package feed

import (
	"context"
	"time"

	"socialfeed/internal/app/session"
	"socialfeed/internal/app/user"
	"socialfeed/internal/pkg/logx"
)

// DefaultSignOutTimeout bounds the remote part of sign-out.
const DefaultSignOutTimeout = 5 * time.Second

// Revoker ends the provider-side session of an account.
type Revoker interface {
	SignOut(ctx context.Context, accountID string) error
}

// Page is what the feed screen renders.
type Page struct {
	User *user.Identity `json:"user"`
}

// Screen is the feed screen.
type Screen struct {
	revoker Revoker
	timeout time.Duration
}

// NewScreen returns a Screen that revokes provider sessions through r.
func NewScreen(r Revoker) *Screen {
	return &Screen{revoker: r, timeout: DefaultSignOutTimeout}
}

// Page returns the feed page for the identity signed in to store, and false when the
// session is signed out.
func (s *Screen) Page(store *session.Store) (Page, bool) {
	current := store.Current()
	if current == nil {
		return Page{}, false
	}
	return Page{User: current}, true
}

// SignOut clears store and then asks the provider to end its session. It is safe to
// call when signed out. A provider failure is logged and does not undo the local sign-out.
func (s *Screen) SignOut(ctx context.Context, store *session.Store) {
	current := store.Current()
	store.SignOut()

	if current == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.revoker.SignOut(ctx, current.ID); err != nil {
		logx.Warn("Remote sign-out failed; local session cleared", "user_id", current.ID, "error", err.Error())
		return
	}
	logx.Info("Signed out", "user_id", current.ID)
}
