package authscreen

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"socialfeed/internal/app/identity"
	"socialfeed/internal/app/provision"
	"socialfeed/internal/app/session"
	"socialfeed/internal/app/user"
	"socialfeed/internal/pkg/errs"
	"socialfeed/internal/pkg/logx"
)

// Authenticator verifies email and password.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (identity.Account, error)
}

// Registrar runs the profile provisioning flow.
type Registrar interface {
	Register(ctx context.Context, in provision.Input, store *session.Store) (*user.Identity, error)
}

// PasswordResetter requests and confirms password resets.
type PasswordResetter interface {
	SendPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

// PopupAuthenticator is provider-mediated sign-in in a popup window.
type PopupAuthenticator interface {
	Enabled() bool
	Start(ctx context.Context, sessionID string) (string, error)
	Complete(ctx context.Context, sessionID string, query url.Values) (identity.Account, error)
}

// Screen performs the auth screen's actions against one session store at a time.
type Screen struct {
	auth  Authenticator
	reg   Registrar
	reset PasswordResetter
	popup PopupAuthenticator
}

// NewScreen returns a Screen. popup may be nil when popup sign-in is not offered.
func NewScreen(auth Authenticator, reg Registrar, reset PasswordResetter, popup PopupAuthenticator) *Screen {
	return &Screen{auth: auth, reg: reg, reset: reset, popup: popup}
}

// PopupEnabled reports whether the popup sign-in button should be shown.
func (s *Screen) PopupEnabled() bool {
	return s.popup != nil && s.popup.Enabled()
}

// Submit signs in or registers, depending on form.Mode, and publishes the resulting
// identity to store. A form that cannot be submitted fails with ErrSubmitDisabled
// without contacting any backend.
func (s *Screen) Submit(ctx context.Context, form Form, store *session.Store) (*user.Identity, error) {
	if !form.CanSubmit() {
		return nil, errs.NewError(errs.ErrSubmitDisabled)
	}

	if form.Mode == ModeRegister {
		return s.reg.Register(ctx, provision.Input{
			Username: strings.TrimSpace(form.Username),
			Email:    strings.TrimSpace(form.Email),
			Password: form.Password,
			Avatar:   form.Avatar,
		}, store)
	}

	account, err := s.auth.SignIn(ctx, strings.TrimSpace(form.Email), form.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, errs.Wrap(errs.ErrInvalidCredentials, err)
		}
		return nil, errs.From(err)
	}

	id := account.Identity()
	store.Publish(id)
	logx.Info("Signed in", "user_id", id.ID)
	return id, nil
}

// StartPopup returns the provider URL the popup window opens for sessionID.
func (s *Screen) StartPopup(ctx context.Context, sessionID string) (string, error) {
	if s.popup == nil {
		return "", errs.Wrap(errs.ErrExternalAuth, identity.ErrPopupNotConfigured)
	}

	authURL, err := s.popup.Start(ctx, sessionID)
	if err != nil {
		return "", errs.Wrap(errs.ErrExternalAuth, err)
	}
	return authURL, nil
}

// CompletePopup finishes popup sign-in from the provider callback received by the
// session sessionID and publishes the identity to store. The callback must come from
// the session that started the sign-in.
func (s *Screen) CompletePopup(ctx context.Context, sessionID string, query url.Values, store *session.Store) (*user.Identity, error) {
	if s.popup == nil {
		return nil, errs.Wrap(errs.ErrExternalAuth, identity.ErrPopupNotConfigured)
	}

	account, err := s.popup.Complete(ctx, sessionID, query)
	if err != nil {
		logx.Warn("Popup sign-in failed", "error", err.Error())
		return nil, errs.Wrap(errs.ErrExternalAuth, err)
	}

	id := account.Identity()
	store.Publish(id)
	return id, nil
}

// ResetDialog is the state of the password reset dialog.
type ResetDialog struct {
	Open  bool   `json:"dialogOpen"`
	Email string `json:"resetEmail"`
}

// SendReset requests a reset email for d.Email. The returned dialog always has its
// email field cleared, whatever the outcome; it is closed only on success.
func (s *Screen) SendReset(ctx context.Context, d ResetDialog) (ResetDialog, error) {
	email := strings.TrimSpace(d.Email)
	d.Email = ""

	if err := s.reset.SendPasswordReset(ctx, email); err != nil {
		return d, errs.Wrap(errs.ErrResetRequest, err)
	}

	d.Open = false
	return d, nil
}

// ConfirmReset sets a new password using the token from a reset link.
func (s *Screen) ConfirmReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if err := s.reset.ConfirmPasswordReset(ctx, token, newPassword); err != nil {
		return errs.Wrap(errs.ErrResetRequest, err)
	}
	return nil
}
