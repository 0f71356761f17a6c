// Package mailer dispatches transactional email for the API. When no SMTP
// host is configured it degrades to logging the message instead of
// sending, so development environments work without a mail account.
package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/recipeplanner/recipeplanner-go/internal/config"
)

// Mailer sends password reset email. Implementations must not reveal
// delivery success or failure to the end user; callers log and move on.
type Mailer interface {
	SendPasswordReset(to, resetURL string) error
}

// New returns an SMTP-backed mailer when cfg carries an SMTP host, and a
// log-only mailer otherwise.
func New(cfg config.Config) Mailer {
	if cfg.SMTPHost == "" {
		slog.Warn("email service not configured, reset emails will be logged")
		return &logMailer{}
	}
	return &smtpMailer{
		addr:     cfg.SMTPHost + ":" + cfg.SMTPPort,
		host:     cfg.SMTPHost,
		username: cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
	}
}

type smtpMailer struct {
	addr     string
	host     string
	username string
	password string
	from     string
}

func (m *smtpMailer) SendPasswordReset(to, resetURL string) error {
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	msg := buildResetMessage(m.from, to, resetURL)
	if err := smtp.SendMail(m.addr, auth, envelopeFrom(m.from), []string{to}, msg); err != nil {
		return fmt.Errorf("sending password reset email: %w", err)
	}
	return nil
}

type logMailer struct{}

func (m *logMailer) SendPasswordReset(to, resetURL string) error {
	slog.Info("password reset email (dev mode)", "to", to, "reset_url", resetURL)
	return nil
}

// envelopeFrom strips a display name from an address like
// "Recipe Planner <no-reply@example.com>".
func envelopeFrom(from string) string {
	if i := strings.Index(from, "<"); i >= 0 {
		if j := strings.Index(from[i:], ">"); j > 0 {
			return from[i+1 : i+j]
		}
	}
	return from
}

// buildResetMessage assembles a multipart/alternative message with a plain
// text part and an HTML part, so clients without HTML rendering still get
// a usable link.
func buildResetMessage(from, to, resetURL string) []byte {
	const boundary = "reset-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Password Reset Request - Recipe Planner\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString("You requested to reset your password for your Recipe Planner account.\r\n\r\n")
	b.WriteString("Click this link to reset your password:\r\n")
	b.WriteString(resetURL + "\r\n\r\n")
	b.WriteString("This link will expire in 1 hour.\r\n\r\n")
	b.WriteString("If you didn't request this password reset, please ignore this email.\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString("<p>You requested to reset your password for your Recipe Planner account.</p>\r\n")
	fmt.Fprintf(&b, "<p><a href=%q>Reset your password</a></p>\r\n", resetURL)
	b.WriteString("<p>This link will expire in 1 hour.</p>\r\n")
	b.WriteString("<p>If you didn't request this password reset, please ignore this email.</p>\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
