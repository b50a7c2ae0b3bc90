package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"

	"socialfeed/internal/app/db"
	mailer "socialfeed/internal/app/mail"
	"socialfeed/internal/app/tokens"
	"socialfeed/internal/pkg/logx"
	"socialfeed/internal/pkg/randx"
)

const (
	// MinPasswordLength is the shortest password the provider accepts, counted in runes.
	MinPasswordLength = 6

	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72

	resetKeyPrefix = "reset:"
)

// ResetMailer delivers password reset links.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, msg mailer.ResetMessage) error
}

// LocalConfig tunes the local provider.
type LocalConfig struct {
	// MinPasswordEntropy is the go-password-validator entropy floor in bits; 0 disables it.
	MinPasswordEntropy float64

	// ResetURL is the page reset links point to; the token is appended as ?token=.
	ResetURL string

	// ResetTTL is how long a reset link stays usable.
	ResetTTL time.Duration

	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Local is the identity provider backed by the service's own account table.
type Local struct {
	cfg    LocalConfig
	users  UserRepository
	tokens tokens.Store
	mailer ResetMailer
}

// NewLocal returns a Local provider.
func NewLocal(cfg LocalConfig, users UserRepository, store tokens.Store, m ResetMailer) *Local {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.ResetTTL == 0 {
		cfg.ResetTTL = time.Hour
	}
	return &Local{cfg: cfg, users: users, tokens: store, mailer: m}
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrEmailMalformed
	}
	return email, nil
}

func (p *Local) checkPassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
	}
	if p.cfg.MinPasswordEntropy > 0 {
		if err := passwordvalidator.Validate(password, p.cfg.MinPasswordEntropy); err != nil {
			return err
		}
	}
	return nil
}

// CreateAccount registers email with password.
func (p *Local) CreateAccount(ctx context.Context, email, password string) (Account, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Account{}, err
	}

	if err := p.checkPassword(password); err != nil {
		return Account{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := p.users.CreateUser(ctx, db.CreateUserParams{
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Account{}, ErrEmailInUse
		}
		logx.Error(err, "create account: insert failed")
		return Account{}, err
	}

	logx.Info("Account created", "user_id", u.ID)
	return accountFromUser(u), nil
}

// SignIn verifies email and password. Every mismatch, including accounts that only
// sign in through a popup provider, yields ErrInvalidCredentials.
func (p *Local) SignIn(ctx context.Context, email, password string) (Account, error) {
	u, err := p.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			logx.Error(err, "sign in: user lookup failed")
			return Account{}, err
		}
		return Account{}, ErrInvalidCredentials
	}

	if u.PasswordHash == "" {
		return Account{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		logx.Warn("sign in: password mismatch", "user_id", u.ID)
		return Account{}, ErrInvalidCredentials
	}

	return accountFromUser(u), nil
}

// SignOut has nothing to revoke: local sessions live entirely in the session store.
func (p *Local) SignOut(_ context.Context, accountID string) error {
	logx.Debug("Local sign-out", "user_id", accountID)
	return nil
}

// SendPasswordReset mails a single-use reset link to the account registered for email.
func (p *Local) SendPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	u, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNoAccountForEmail
		}
		return err
	}

	token, err := randx.Token()
	if err != nil {
		return err
	}

	if err := p.tokens.Put(ctx, resetKeyPrefix+token, []byte(u.ID), p.cfg.ResetTTL); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := p.cfg.ResetURL + "?token=" + url.QueryEscape(token)
	return p.mailer.SendPasswordReset(ctx, mailer.ResetMessage{
		To:       u.Email,
		Name:     u.DisplayName,
		Link:     link,
		ValidFor: p.cfg.ResetTTL,
	})
}

// ConfirmPasswordReset consumes token and sets newPassword. A weak password is
// rejected before the token is consumed, so the link can be retried.
func (p *Local) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := p.checkPassword(newPassword); err != nil {
		return err
	}

	userID, err := p.tokens.Take(ctx, resetKeyPrefix+token)
	if err != nil {
		if errors.Is(err, tokens.ErrNotFound) {
			return ErrResetLinkInvalid
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), p.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := p.users.UpdateUserPassword(ctx, string(userID), string(hash)); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	logx.Info("Password reset completed", "user_id", string(userID))
	return nil
}

// UpdateAccountProfile writes display name and avatar URL.
func (p *Local) UpdateAccountProfile(ctx context.Context, accountID, displayName, avatarURL string) error {
	_, err := p.users.UpdateUserProfile(ctx, db.UpdateUserProfileParams{
		ID:          accountID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	})
	if errors.Is(err, db.ErrNotFound) {
		return ErrAccountNotFound
	}
	return err
}
