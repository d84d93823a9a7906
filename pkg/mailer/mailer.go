package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// Address is an RFC 5322 mailbox split into its parts.
type Address struct {
	Email string
	Name  string
}

// Message is a single transactional email. HTML is required; Text is sent as
// an alternative part when the provider supports it.
type Message struct {
	To      Address
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers a message through a transactional email provider.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Provider() string
}

// Logger is the subset of the application logger used by mailers.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

var (
	ErrInvalidMessage = errors.New("mailer: message requires a recipient, subject and body")
	ErrInvalidAddress = errors.New("mailer: invalid email address")
)

func (m Message) validate() error {
	if m.To.Email == "" || m.Subject == "" || m.HTML == "" {
		return ErrInvalidMessage
	}
	if err := validateAddress(m.To.Email); err != nil {
		return err
	}
	if strings.ContainsAny(m.To.Name, "\r\n") {
		return fmt.Errorf("%w: recipient name spans lines", ErrInvalidAddress)
	}
	if m.ReplyTo != "" {
		if err := validateAddress(m.ReplyTo); err != nil {
			return err
		}
	}
	return nil
}

// validateAddress accepts only a bare address. Display names, groups and
// anything spanning lines are rejected so the value is safe in a header.
func validateAddress(raw string) error {
	if strings.ContainsAny(raw, "\r\n") {
		return fmt.Errorf("%w: %q spans lines", ErrInvalidAddress, raw)
	}

	parsed, err := mail.ParseAddress(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAddress, raw, err)
	}
	if parsed.Name != "" || parsed.Address != strings.TrimSpace(raw) {
		return fmt.Errorf("%w: %q is not a bare address", ErrInvalidAddress, raw)
	}
	return nil
}

// ProviderError reports a non-success answer from the delivery provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: delivery rejected with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Temporary reports whether the provider may accept the same message later.
func (e *ProviderError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
