package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"socialfeed/internal/app/db"
	mailer "socialfeed/internal/app/mail"
	"socialfeed/internal/app/tokens"
)

type fakeRepo struct {
	mu       sync.Mutex
	users    map[string]db.User
	external map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]db.User{}, external: map[string]string{}}
}

func (r *fakeRepo) CreateUser(_ context.Context, arg db.CreateUserParams) (db.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, arg.Email) {
			return db.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u := db.User{
		ID:           uuid.NewString(),
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		DisplayName:  arg.DisplayName,
		AvatarURL:    arg.AvatarURL,
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *fakeRepo) GetUserByID(_ context.Context, id string) (db.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return db.User{}, db.ErrNotFound
	}
	return u, nil
}

func (r *fakeRepo) GetUserByEmail(_ context.Context, email string) (db.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return db.User{}, db.ErrNotFound
}

func (r *fakeRepo) UpdateUserProfile(_ context.Context, arg db.UpdateUserProfileParams) (db.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[arg.ID]
	if !ok {
		return db.User{}, db.ErrNotFound
	}
	u.DisplayName, u.AvatarURL = arg.DisplayName, arg.AvatarURL
	r.users[u.ID] = u
	return u, nil
}

func (r *fakeRepo) UpdateUserPassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.PasswordHash = hash
	r.users[id] = u
	return nil
}

func (r *fakeRepo) GetUserByExternalIdentity(_ context.Context, provider, subject string) (db.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.external[provider+"|"+subject]
	if !ok {
		return db.User{}, db.ErrNotFound
	}
	return r.users[id], nil
}

func (r *fakeRepo) LinkExternalIdentity(_ context.Context, arg db.ExternalIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := arg.Provider + "|" + arg.Subject
	if _, ok := r.external[key]; !ok {
		r.external[key] = arg.UserID
	}
	return nil
}

type fakeMailer struct {
	sent []mailer.ResetMessage
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, msg mailer.ResetMessage) error {
	m.sent = append(m.sent, msg)
	return nil
}

func newLocal(t *testing.T) (*Local, *fakeRepo, *fakeMailer) {
	t.Helper()
	repo := newFakeRepo()
	m := &fakeMailer{}
	p := NewLocal(LocalConfig{
		ResetURL:   "https://feed.example.com/reset",
		ResetTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, repo, tokens.NewMemory(), m)
	return p, repo, m
}

func TestCreateAccountAndSignIn(t *testing.T) {
	p, _, _ := newLocal(t)
	ctx := context.Background()

	acct, err := p.CreateAccount(ctx, " alice@example.com ", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, acct.ID)
	assert.Equal(t, "alice@example.com", acct.Email)
	assert.Empty(t, acct.DisplayName)

	got, err := p.SignIn(ctx, "ALICE@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)

	_, err = p.SignIn(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = p.SignIn(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateAccountRejections(t *testing.T) {
	p, _, _ := newLocal(t)
	ctx := context.Background()

	_, err := p.CreateAccount(ctx, "not-an-email", "hunter22")
	assert.ErrorIs(t, err, ErrEmailMalformed)

	_, err = p.CreateAccount(ctx, "Bob <bob@example.com>", "hunter22")
	assert.ErrorIs(t, err, ErrEmailMalformed)

	_, err = p.CreateAccount(ctx, "bob@example.com", "12345")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = p.CreateAccount(ctx, "bob@example.com", "hunter22")
	require.NoError(t, err)

	_, err = p.CreateAccount(ctx, "BOB@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestCreateAccountEntropyFloor(t *testing.T) {
	repo := newFakeRepo()
	p := NewLocal(LocalConfig{MinPasswordEntropy: 60, BcryptCost: bcrypt.MinCost}, repo, tokens.NewMemory(), &fakeMailer{})

	_, err := p.CreateAccount(context.Background(), "carol@example.com", "aaaaaa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure password")
}

func TestPasswordResetRoundTrip(t *testing.T) {
	p, _, m := newLocal(t)
	ctx := context.Background()

	_, err := p.CreateAccount(ctx, "dave@example.com", "hunter22")
	require.NoError(t, err)

	require.NoError(t, p.SendPasswordReset(ctx, "dave@example.com"))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "dave@example.com", m.sent[0].To)
	assert.Equal(t, time.Hour, m.sent[0].ValidFor)

	link, err := url.Parse(m.sent[0].Link)
	require.NoError(t, err)
	assert.Equal(t, "/reset", link.Path)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	assert.ErrorIs(t, p.ConfirmPasswordReset(ctx, token, "short"), ErrPasswordTooShort)
	require.NoError(t, p.ConfirmPasswordReset(ctx, token, "new-secret"))
	assert.ErrorIs(t, p.ConfirmPasswordReset(ctx, token, "new-secret"), ErrResetLinkInvalid)

	_, err = p.SignIn(ctx, "dave@example.com", "new-secret")
	assert.NoError(t, err)
}

func TestSendPasswordResetUnknownEmail(t *testing.T) {
	p, _, m := newLocal(t)

	err := p.SendPasswordReset(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrNoAccountForEmail)

	err = p.SendPasswordReset(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmailMalformed)
	assert.Empty(t, m.sent)
}

func TestUpdateAccountProfile(t *testing.T) {
	p, repo, _ := newLocal(t)
	ctx := context.Background()

	acct, err := p.CreateAccount(ctx, "erin@example.com", "hunter22")
	require.NoError(t, err)

	require.NoError(t, p.UpdateAccountProfile(ctx, acct.ID, "erin", "https://cdn.example.com/avatars/x.png"))
	u, _ := repo.GetUserByID(ctx, acct.ID)
	assert.Equal(t, "erin", u.DisplayName)
	assert.Equal(t, "https://cdn.example.com/avatars/x.png", u.AvatarURL)

	assert.ErrorIs(t, p.UpdateAccountProfile(ctx, uuid.NewString(), "x", ""), ErrAccountNotFound)
}

type fakeOAuth struct {
	*httptest.Server
	subject  string
	email    string
	verified bool
	verifier string
}

func newFakeOAuth(t *testing.T) *fakeOAuth {
	t.Helper()
	f := &fakeOAuth{subject: "g-123", email: "frank@example.com", verified: true}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		f.verifier = r.PostForm.Get("code_verifier")
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant", "error_description": "Bad Request"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "at-1", "token_type": "Bearer"})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sub":            f.subject,
			"email":          f.email,
			"email_verified": f.verified,
			"name":           "Frank",
			"picture":        "https://lh3.example.com/frank.png",
		})
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newPopup(f *fakeOAuth, repo *fakeRepo) *Popup {
	endpoint := oauth2.Endpoint{
		AuthURL:   f.URL + "/auth",
		TokenURL:  f.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	cfg := PopupConfig{
		Provider:     "google",
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "https://feed.example.com/api/auth/popup/callback",
		Endpoint:     endpoint,
		UserInfoURL:  f.URL + "/userinfo",
		Scopes:       []string{"openid", "email"},
	}
	return NewPopup(cfg, repo, tokens.NewMemory(), f.Client())
}

func startPopup(t *testing.T, p *Popup, sid string) url.Values {
	t.Helper()
	raw, err := p.Start(context.Background(), sid)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "S256", u.Query().Get("code_challenge_method"))
	assert.Equal(t, "openid email", u.Query().Get("scope"))
	assert.Equal(t, "select_account", u.Query().Get("prompt"))
	return u.Query()
}

func startState(t *testing.T, p *Popup, sid string) string {
	t.Helper()
	return startPopup(t, p, sid).Get("state")
}

func TestPopupCreatesAndReusesAccount(t *testing.T) {
	f := newFakeOAuth(t)
	repo := newFakeRepo()
	p := newPopup(f, repo)
	ctx := context.Background()

	auth := startPopup(t, p, "sid-1")
	acct, err := p.Complete(ctx, "sid-1", url.Values{"state": {auth.Get("state")}, "code": {"good-code"}})
	require.NoError(t, err)
	assert.Equal(t, "Frank", acct.DisplayName)
	assert.Equal(t, "https://lh3.example.com/frank.png", acct.AvatarURL)
	assert.Equal(t, auth.Get("code_challenge"), oauth2.S256ChallengeFromVerifier(f.verifier))

	state := startState(t, p, "sid-2")
	again, err := p.Complete(ctx, "sid-2", url.Values{"state": {state}, "code": {"good-code"}})
	require.NoError(t, err)
	assert.Equal(t, acct.ID, again.ID)
	assert.Len(t, repo.users, 1)
}

func TestPopupLinksVerifiedEmail(t *testing.T) {
	f := newFakeOAuth(t)
	repo := newFakeRepo()
	existing, err := repo.CreateUser(context.Background(), db.CreateUserParams{Email: "frank@example.com", DisplayName: "frankie"})
	require.NoError(t, err)

	p := newPopup(f, repo)
	state := startState(t, p, "sid")
	acct, err := p.Complete(context.Background(), "sid", url.Values{"state": {state}, "code": {"good-code"}})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, acct.ID)
	assert.Equal(t, "frankie", acct.DisplayName)
}

func TestPopupUnverifiedEmailCollision(t *testing.T) {
	f := newFakeOAuth(t)
	f.verified = false
	repo := newFakeRepo()
	_, err := repo.CreateUser(context.Background(), db.CreateUserParams{Email: "frank@example.com"})
	require.NoError(t, err)

	p := newPopup(f, repo)
	state := startState(t, p, "sid")
	_, err = p.Complete(context.Background(), "sid", url.Values{"state": {state}, "code": {"good-code"}})
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestPopupCancelledByUser(t *testing.T) {
	f := newFakeOAuth(t)
	p := newPopup(f, newFakeRepo())

	state := startState(t, p, "sid")
	_, err := p.Complete(context.Background(), "sid", url.Values{
		"state":             {state},
		"error":             {"access_denied"},
		"error_description": {"The user closed the popup"},
	})
	require.Error(t, err)
	assert.Equal(t, "access_denied: The user closed the popup", err.Error())
}

func TestPopupRejectsUnknownOrReusedState(t *testing.T) {
	f := newFakeOAuth(t)
	p := newPopup(f, newFakeRepo())
	ctx := context.Background()

	_, err := p.Complete(ctx, "sid", url.Values{"state": {"nope"}, "code": {"good-code"}})
	assert.ErrorIs(t, err, ErrPopupStateInvalid)

	state := startState(t, p, "sid")
	_, err = p.Complete(ctx, "sid", url.Values{"state": {state}, "code": {"bad-code"}})
	require.Error(t, err)
	assert.Equal(t, "invalid_grant: Bad Request", err.Error())

	_, err = p.Complete(ctx, "sid", url.Values{"state": {state}, "code": {"good-code"}})
	assert.ErrorIs(t, err, ErrPopupStateInvalid)
}

func TestPopupCallbackBoundToStartingSession(t *testing.T) {
	f := newFakeOAuth(t)
	repo := newFakeRepo()
	p := newPopup(f, repo)
	ctx := context.Background()

	state := startState(t, p, "sid-owner")

	_, err := p.Complete(ctx, "sid-other", url.Values{"state": {state}, "code": {"good-code"}})
	assert.ErrorIs(t, err, ErrPopupStateInvalid)
	assert.Empty(t, f.verifier, "no code exchange for a foreign session")
	assert.Empty(t, repo.users)

	_, err = p.Complete(ctx, "sid-owner", url.Values{"state": {state}, "code": {"good-code"}})
	assert.ErrorIs(t, err, ErrPopupStateInvalid, "a rejected callback consumes the state")

	_, err = p.Complete(ctx, "", url.Values{"state": {startState(t, p, "sid-owner")}, "code": {"good-code"}})
	assert.ErrorIs(t, err, ErrPopupStateInvalid)
}

func TestPopupDisabledWithoutCredentials(t *testing.T) {
	p := NewPopup(PopupConfig{}, newFakeRepo(), tokens.NewMemory(), nil)
	assert.False(t, p.Enabled())

	_, err := p.Start(context.Background(), "sid")
	assert.ErrorIs(t, err, ErrPopupNotConfigured)
}
