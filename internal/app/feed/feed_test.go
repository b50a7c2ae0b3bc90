package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"socialfeed/internal/app/gate"
	"socialfeed/internal/app/session"
	"socialfeed/internal/app/user"
)

type fakeRevoker struct {
	err   error
	calls []string
}

func (f *fakeRevoker) SignOut(_ context.Context, accountID string) error {
	f.calls = append(f.calls, accountID)
	return f.err
}

func signedIn() *session.Store {
	store := session.NewStore()
	store.Publish(&user.Identity{ID: "uid-1", DisplayName: "alice"})
	return store
}

func TestSignOutThenGateIsUnauthenticated(t *testing.T) {
	r := &fakeRevoker{}
	store := signedIn()

	NewScreen(r).SignOut(context.Background(), store)

	g := gate.Mount(store, nil)
	defer g.Unmount()
	assert.Equal(t, gate.Unauthenticated, g.View().State)
	assert.Equal(t, []string{"uid-1"}, r.calls)
}

func TestSignOutClearsLocallyWhenProviderFails(t *testing.T) {
	r := &fakeRevoker{err: errors.New("network unreachable")}
	store := signedIn()

	NewScreen(r).SignOut(context.Background(), store)

	assert.Nil(t, store.Current())
}

func TestSignOutIsIdempotent(t *testing.T) {
	r := &fakeRevoker{}
	store := session.NewStore()
	screen := NewScreen(r)

	screen.SignOut(context.Background(), store)
	screen.SignOut(context.Background(), store)

	assert.Nil(t, store.Current())
	assert.Empty(t, r.calls)
}

func TestPage(t *testing.T) {
	screen := NewScreen(&fakeRevoker{})

	_, ok := screen.Page(session.NewStore())
	assert.False(t, ok)

	page, ok := screen.Page(signedIn())
	assert.True(t, ok)
	assert.Equal(t, "alice", page.User.DisplayName)
}
