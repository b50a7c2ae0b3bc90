/*
Package provision creates a complete user profile from a registration form.

Register runs five strictly sequential steps: create the account, upload the optional
avatar, resolve its public URL, write the profile metadata, publish the identity to the
session store. It stops at the first failing step and publishes nothing in that case.
Remote side effects of the steps that did succeed (an account, an uploaded blob) are
left in place.
*/
package provision

import (
	"context"
	"io"
	"strings"

	"socialfeed/internal/app/identity"
	"socialfeed/internal/app/session"
	"socialfeed/internal/app/storage"
	"socialfeed/internal/app/user"
	"socialfeed/internal/pkg/errs"
	"socialfeed/internal/pkg/logx"
	"socialfeed/internal/pkg/randx"
)

// AccountService is the part of the identity provider the flow needs.
type AccountService interface {
	CreateAccount(ctx context.Context, email, password string) (identity.Account, error)
	UpdateAccountProfile(ctx context.Context, accountID, displayName, avatarURL string) error
}

// BlobStore stores avatars and resolves their public URLs.
type BlobStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	DownloadURL(key string) string
}

// blobRemover is implemented by blob stores that can delete the objects they issued.
type blobRemover interface {
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// Input is a validated registration form.
type Input struct {
	Username string
	Email    string
	Password string
	Avatar   *Avatar
}

// Flow runs registration and profile updates.
type Flow struct {
	accounts AccountService
	blobs    BlobStore

	// avatarKey is randx.AvatarKey outside tests.
	avatarKey func(filename string) (string, error)
}

// NewFlow returns a Flow bound to an identity provider and a blob store.
func NewFlow(accounts AccountService, blobs BlobStore) *Flow {
	return &Flow{
		accounts:  accounts,
		blobs:     blobs,
		avatarKey: randx.AvatarKey,
	}
}

// Register provisions a new account from in and publishes its identity to store.
// Once the account request has been issued the flow runs to completion even if ctx
// is cancelled.
func (f *Flow) Register(ctx context.Context, in Input, store *session.Store) (*user.Identity, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	if in.Avatar != nil {
		if err := in.Avatar.Validate(); err != nil {
			return nil, err
		}
	}

	ctx = context.WithoutCancel(ctx)

	account, err := f.accounts.CreateAccount(ctx, in.Email, in.Password)
	if err != nil {
		return nil, errs.Wrap(errs.ErrAccountCreation, err)
	}

	avatarURL, err := f.uploadAvatar(ctx, in.Avatar)
	if err != nil {
		logx.Warn("Registration stopped after account creation", "user_id", account.ID, "step", "avatar_upload")
		return nil, err
	}

	if err := f.accounts.UpdateAccountProfile(ctx, account.ID, in.Username, avatarURL); err != nil {
		logx.Warn("Registration stopped after account creation", "user_id", account.ID, "step", "profile_update")
		return nil, errs.Wrap(errs.ErrProfileUpdate, err)
	}

	profile := &user.Identity{
		ID:          account.ID,
		DisplayName: in.Username,
		AvatarURL:   avatarURL,
	}
	store.Publish(profile)

	logx.Info("Registration completed", "user_id", account.ID, "has_avatar", avatarURL != "")
	return profile, nil
}

// UpdateProfile changes the display name and, when avatar is set, the avatar of the
// identity signed in to store. An empty displayName keeps the current one. The replaced
// avatar object is deleted on a best-effort basis.
func (f *Flow) UpdateProfile(ctx context.Context, store *session.Store, displayName string, avatar *Avatar) (*user.Identity, error) {
	current := store.Current()
	if current == nil {
		return nil, errs.NewError(errs.ErrUnauthorized)
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = current.DisplayName
	}
	if avatar != nil {
		if err := avatar.Validate(); err != nil {
			return nil, err
		}
	}

	ctx = context.WithoutCancel(ctx)

	avatarURL := current.AvatarURL
	if avatar != nil {
		uploaded, err := f.uploadAvatar(ctx, avatar)
		if err != nil {
			return nil, err
		}
		avatarURL = uploaded
	}

	if err := f.accounts.UpdateAccountProfile(ctx, current.ID, displayName, avatarURL); err != nil {
		return nil, errs.Wrap(errs.ErrProfileUpdate, err)
	}

	if !store.UpdateProfile(displayName, avatarURL) {
		return nil, errs.NewError(errs.ErrUnauthorized)
	}

	if avatarURL != current.AvatarURL {
		f.removeAvatar(ctx, current.AvatarURL)
	}

	return store.Current(), nil
}

// uploadAvatar stores a under a fresh random key and returns its public URL, or ""
// when a is nil.
func (f *Flow) uploadAvatar(ctx context.Context, a *Avatar) (string, error) {
	if a == nil {
		return "", nil
	}

	key, err := f.avatarKey(a.Filename)
	if err != nil {
		return "", errs.NewError(errs.ErrUnknown, err)
	}
	path := storage.AvatarPrefix + key

	if err := f.blobs.Upload(ctx, path, a.Body, a.ContentType); err != nil {
		return "", errs.Wrap(errs.ErrStorageUpload, err)
	}

	return f.blobs.DownloadURL(path), nil
}

func (f *Flow) removeAvatar(ctx context.Context, avatarURL string) {
	remover, ok := f.blobs.(blobRemover)
	if !ok || avatarURL == "" {
		return
	}

	key, ok := remover.KeyFromURL(avatarURL)
	if !ok || !strings.HasPrefix(key, storage.AvatarPrefix) {
		return
	}

	if err := remover.Delete(ctx, key); err != nil {
		logx.Warn("Failed to delete replaced avatar", "key", key, "error", err.Error())
	}
}
