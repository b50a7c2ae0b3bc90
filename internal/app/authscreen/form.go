/*
Package authscreen is the login/registration screen: form state, submit gating,
credential and popup sign-in, and the password reset dialog.

Every action returns its error instead of alerting; the HTTP layer decides whether an
error becomes a JSON failure or an alert on the rendered page.
*/
package authscreen

import (
	"strings"
	"unicode/utf8"

	"socialfeed/internal/app/provision"
)

// MinPasswordLength is the shortest password the form lets through, in runes.
const MinPasswordLength = 6

// Mode selects which form the screen shows.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

// ParseMode maps "register" to ModeRegister and anything else to ModeLogin.
func ParseMode(s string) Mode {
	if strings.EqualFold(s, "register") {
		return ModeRegister
	}
	return ModeLogin
}

// Toggle switches between login and registration.
func (m Mode) Toggle() Mode {
	if m == ModeRegister {
		return ModeLogin
	}
	return ModeRegister
}

// Form is the screen's input. In register mode it is the pending registration and is
// never persisted.
type Form struct {
	Mode     Mode
	Email    string
	Password string
	Username string
	Avatar   *provision.Avatar
}

// CanSubmit reports whether the submit control is enabled. Login needs an email and a
// password of at least MinPasswordLength; registration additionally needs a username
// and an avatar.
func (f Form) CanSubmit() bool {
	if strings.TrimSpace(f.Email) == "" || utf8.RuneCountInString(f.Password) < MinPasswordLength {
		return false
	}
	if f.Mode == ModeLogin {
		return true
	}
	return strings.TrimSpace(f.Username) != "" && f.Avatar != nil
}
