/*
Package identity is the identity provider used by the client flows: account creation,
credential sign-in, provider-mediated popup sign-in, password reset and profile writes.

Errors returned by a Provider are the provider's own messages; callers classify them
but never rewrite their text.
*/
package identity

import (
	"context"
	"errors"

	"socialfeed/internal/app/db"
	"socialfeed/internal/app/user"
)

// Account is the provider-side record of a user.
type Account struct {
	ID          string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Identity returns the session identity of a.
func (a Account) Identity() *user.Identity {
	return &user.Identity{ID: a.ID, DisplayName: a.DisplayName, AvatarURL: a.AvatarURL}
}

// Provider is the capability surface the client flows bind to.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (Account, error)
	SignIn(ctx context.Context, email, password string) (Account, error)
	// SignOut invalidates provider-side session state for accountID. It is idempotent.
	SignOut(ctx context.Context, accountID string) error
	SendPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	UpdateAccountProfile(ctx context.Context, accountID, displayName, avatarURL string) error
}

// UserRepository is the account storage the local provider and popup sign-in need.
// *db.Queries implements it.
type UserRepository interface {
	CreateUser(ctx context.Context, arg db.CreateUserParams) (db.User, error)
	GetUserByID(ctx context.Context, id string) (db.User, error)
	GetUserByEmail(ctx context.Context, email string) (db.User, error)
	UpdateUserProfile(ctx context.Context, arg db.UpdateUserProfileParams) (db.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	GetUserByExternalIdentity(ctx context.Context, provider, subject string) (db.User, error)
	LinkExternalIdentity(ctx context.Context, arg db.ExternalIdentity) error
}

var (
	ErrEmailMalformed     = errors.New("the email address is badly formatted")
	ErrEmailInUse         = errors.New("the email address is already in use by another account")
	ErrPasswordTooShort   = errors.New("password should be at least 6 characters")
	ErrInvalidCredentials = errors.New("the email or password is incorrect")
	ErrNoAccountForEmail  = errors.New("there is no account registered for this email address")
	ErrResetLinkInvalid   = errors.New("the password reset link is invalid or has expired")
	ErrAccountNotFound    = errors.New("the account no longer exists")

	ErrPopupNotConfigured = errors.New("popup sign-in is not configured")
	ErrPopupStateInvalid  = errors.New("the sign-in request is invalid or has expired")
)

func accountFromUser(u db.User) Account {
	return Account{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}
