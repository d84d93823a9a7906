package mailer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	DefaultSendGridBaseURL = "https://api.sendgrid.com"

	sendGridEndpoint = "/v3/mail/send"
)

type SendGridConfig struct {
	APIKey     string
	BaseURL    string
	From       Address
	HTTPClient *http.Client
}

// SendGridMailer talks to the SendGrid v3 mail/send endpoint.
type SendGridMailer struct {
	apiKey string
	host   string
	from   Address
	client *rest.Client
}

func NewSendGridMailer(cfg SendGridConfig) *SendGridMailer {
	host := strings.TrimRight(cfg.BaseURL, "/")
	if host == "" {
		host = DefaultSendGridBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &SendGridMailer{
		apiKey: cfg.APIKey,
		host:   host,
		from:   cfg.From,
		client: &rest.Client{HTTPClient: httpClient},
	}
}

func (m *SendGridMailer) Provider() string {
	return "sendgrid"
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	req := sendgrid.GetRequest(m.apiKey, sendGridEndpoint, m.host)
	req.Method = rest.Post
	req.Headers["Content-Type"] = "application/json"
	req.Body = sgmail.GetRequestBody(m.build(msg))

	resp, err := m.client.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid: request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := strings.TrimSpace(resp.Body)
		if len(body) > 4096 {
			body = body[:4096]
		}
		return &ProviderError{
			Provider:   m.Provider(),
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	return nil
}

func (m *SendGridMailer) build(msg Message) *sgmail.SGMailV3 {
	email := sgmail.NewV3Mail()
	email.SetFrom(sgmail.NewEmail(m.from.Name, m.from.Email))
	if msg.ReplyTo != "" {
		email.SetReplyTo(sgmail.NewEmail("", msg.ReplyTo))
	}

	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Email))
	p.Subject = msg.Subject
	email.AddPersonalizations(p)

	// SendGrid requires text/plain to precede text/html.
	if msg.Text != "" {
		email.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	email.AddContent(sgmail.NewContent("text/html", msg.HTML))

	return email
}
