/*
Package mail renders and delivers account emails.
*/
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"socialfeed/internal/pkg/logx"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// ResetMessage is the data of a password reset email.
type ResetMessage struct {
	To       string
	Name     string
	Link     string
	ValidFor time.Duration
}

// RenderPasswordReset renders the HTML body of a reset email.
func RenderPasswordReset(msg ResetMessage) (string, error) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "password_reset.html", map[string]any{
		"Name":     msg.Name,
		"Link":     msg.Link,
		"ValidFor": msg.ValidFor.Round(time.Minute).String(),
	})
	if err != nil {
		return "", fmt.Errorf("render password reset email: %w", err)
	}
	return buf.String(), nil
}

// Sender delivers mail through an SMTP relay.
type Sender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSender returns a Sender for the given SMTP relay.
func NewSender(host string, port int, username, password, from string) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// SendPasswordReset renders and sends a reset email. gomail has no context support,
// so ctx is only checked before dialing.
func (s *Sender) SendPasswordReset(ctx context.Context, msg ResetMessage) error {
	body, err := RenderPasswordReset(msg)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", "Reset your socialfeed password")
	m.SetBody("text/plain", "Choose a new password: "+msg.Link)
	m.AddAlternative("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send password reset email: %w", err)
	}
	return nil
}

// LogSender writes reset links to the log instead of sending mail. Development only.
type LogSender struct{}

func (LogSender) SendPasswordReset(_ context.Context, msg ResetMessage) error {
	logx.Info("Password reset email (not sent, no SMTP relay configured)",
		"to", msg.To,
		"link", msg.Link,
	)
	return nil
}
