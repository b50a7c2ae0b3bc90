package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"socialfeed/internal/app/db"
	"socialfeed/internal/app/tokens"
	"socialfeed/internal/pkg/logx"
	"socialfeed/internal/pkg/randx"
)

const (
	popupKeyPrefix      = "popup:"
	popupStateLength    = 32
	maxProviderResponse = 1 << 20
)

// PopupConfig describes the OAuth 2.0 authorization-code provider behind popup sign-in.
type PopupConfig struct {
	Provider     string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
	Scopes       []string
	StateTTL     time.Duration
}

// GoogleConfig returns a PopupConfig for Google's OpenID Connect endpoints.
func GoogleConfig(clientID, clientSecret, redirectURL string) PopupConfig {
	return PopupConfig{
		Provider:     "google",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		UserInfoURL:  "https://openidconnect.googleapis.com/v1/userinfo",
		Scopes:       []string{"openid", "email", "profile"},
		StateTTL:     10 * time.Minute,
	}
}

// Popup runs the provider-mediated sign-in that the client opens in a popup window.
type Popup struct {
	cfg    PopupConfig
	oauth  *oauth2.Config
	users  UserRepository
	tokens tokens.Store
	client *http.Client
}

// NewPopup returns a Popup. A nil client uses a client with a 10 second timeout.
func NewPopup(cfg PopupConfig, users UserRepository, store tokens.Store, client *http.Client) *Popup {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.StateTTL == 0 {
		cfg.StateTTL = 10 * time.Minute
	}
	return &Popup{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     cfg.Endpoint,
			Scopes:       cfg.Scopes,
		},
		users:  users,
		tokens: store,
		client: client,
	}
}

// Enabled reports whether the provider credentials are configured.
func (p *Popup) Enabled() bool {
	return p != nil && p.cfg.ClientID != "" && p.cfg.ClientSecret != "" && p.cfg.RedirectURL != ""
}

type popupState struct {
	SessionID string `json:"sid"`
	Verifier  string `json:"verifier"`
}

// Start records a pending sign-in for sessionID and returns the provider URL the popup
// window should open.
func (p *Popup) Start(ctx context.Context, sessionID string) (string, error) {
	if !p.Enabled() {
		return "", ErrPopupNotConfigured
	}

	state, err := randx.String(popupStateLength)
	if err != nil {
		return "", err
	}
	verifier := oauth2.GenerateVerifier()

	payload, err := json.Marshal(popupState{SessionID: sessionID, Verifier: verifier})
	if err != nil {
		return "", err
	}
	if err := p.tokens.Put(ctx, popupKeyPrefix+state, payload, p.cfg.StateTTL); err != nil {
		return "", fmt.Errorf("store popup state: %w", err)
	}

	return p.oauth.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	), nil
}

// Complete handles the provider redirect for the browser session sessionID and returns
// the account the provider identity resolves to, creating or linking one when needed.
// The state is consumed even when the callback arrives from a session other than the
// one that started the sign-in; that callback fails with ErrPopupStateInvalid. A user
// who closes or denies the popup gets the provider's error.
func (p *Popup) Complete(ctx context.Context, sessionID string, query url.Values) (Account, error) {
	if !p.Enabled() {
		return Account{}, ErrPopupNotConfigured
	}

	state := query.Get("state")
	if state == "" || !randx.IsBase62(state) {
		return Account{}, ErrPopupStateInvalid
	}

	raw, err := p.tokens.Take(ctx, popupKeyPrefix+state)
	if err != nil {
		if errors.Is(err, tokens.ErrNotFound) {
			return Account{}, ErrPopupStateInvalid
		}
		return Account{}, err
	}

	var pending popupState
	if err := json.Unmarshal(raw, &pending); err != nil {
		return Account{}, ErrPopupStateInvalid
	}
	if sessionID == "" || pending.SessionID != sessionID {
		logx.Warn("Popup callback from a different session rejected", "provider", p.cfg.Provider)
		return Account{}, ErrPopupStateInvalid
	}

	if providerErr := query.Get("error"); providerErr != "" {
		return Account{}, providerError(providerErr, query.Get("error_description"))
	}

	code := query.Get("code")
	if code == "" {
		return Account{}, errors.New("the provider did not return an authorization code")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	tok, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(pending.Verifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode != "" {
			return Account{}, providerError(retrieveErr.ErrorCode, retrieveErr.ErrorDescription)
		}
		return Account{}, fmt.Errorf("token exchange: %w", err)
	}

	info, err := p.userInfo(ctx, tok)
	if err != nil {
		return Account{}, err
	}

	account, err := p.resolve(ctx, info)
	if err != nil {
		return Account{}, err
	}

	logx.Info("Popup sign-in completed", "provider", p.cfg.Provider, "user_id", account.ID)
	return account, nil
}

// providerError keeps the provider's own error text.
func providerError(code, description string) error {
	if description != "" {
		return fmt.Errorf("%s: %s", code, description)
	}
	return errors.New(code)
}

type userInfo struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (p *Popup) userInfo(ctx context.Context, tok *oauth2.Token) (userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.UserInfoURL, nil)
	if err != nil {
		return userInfo{}, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := p.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return userInfo{}, fmt.Errorf("userinfo: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return userInfo{}, fmt.Errorf("userinfo request failed with status %d", res.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(io.LimitReader(res.Body, maxProviderResponse)).Decode(&info); err != nil {
		return userInfo{}, fmt.Errorf("userinfo: %w", err)
	}
	if info.Subject == "" {
		return userInfo{}, errors.New("the provider did not return a subject")
	}
	return info, nil
}

// resolve finds the user linked to info, links an existing user with the same
// verified email, or creates a passwordless user.
func (p *Popup) resolve(ctx context.Context, info userInfo) (Account, error) {
	u, err := p.users.GetUserByExternalIdentity(ctx, p.cfg.Provider, info.Subject)
	if err == nil {
		return accountFromUser(u), nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return Account{}, err
	}

	email := strings.TrimSpace(info.Email)
	if email == "" {
		return Account{}, errors.New("the provider did not share an email address")
	}

	if info.EmailVerified {
		u, err = p.users.GetUserByEmail(ctx, email)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return Account{}, err
		}
	}

	if info.EmailVerified && err == nil {
		logx.Info("Linking provider identity to existing account", "provider", p.cfg.Provider, "user_id", u.ID)
	} else {
		u, err = p.users.CreateUser(ctx, db.CreateUserParams{
			Email:       email,
			DisplayName: info.Name,
			AvatarURL:   info.Picture,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return Account{}, ErrEmailInUse
			}
			return Account{}, err
		}
	}

	if err := p.users.LinkExternalIdentity(ctx, db.ExternalIdentity{
		Provider: p.cfg.Provider,
		Subject:  info.Subject,
		UserID:   u.ID,
		Email:    email,
	}); err != nil {
		return Account{}, err
	}

	return accountFromUser(u), nil
}
