package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/akeren/digitalcraft-dispatch/internal/form"
	"github.com/akeren/digitalcraft-dispatch/internal/log"
	"github.com/akeren/digitalcraft-dispatch/internal/notice"
	"github.com/google/uuid"
)

const (
	DefaultTimeout       = 15 * time.Second
	IdempotencyKeyHeader = "Idempotency-Key"
	sendEmailPath        = "/send-email"
	maxResponseBytes     = 64 << 10

	kindContact = "contact"
	kindMeeting = "meeting"
)

// Notice texts shown to the user.
const (
	MsgContactSent       = "Message sent successfully! We'll get back to you within 24 hours."
	MsgMeetingScheduled  = "Meeting scheduled successfully! You'll receive calendar invites shortly."
	MsgContactFallback   = "Opening email client as fallback. Please send the email manually."
	MsgMeetingFallback   = "Opening Google Calendar as fallback. Please save the event manually."
	MsgFallbackFailed    = "Could not open the fallback link"
	MsgMeetingFailed     = "Failed to Schedule Meeting"
	MsgMeetingFailedHint = "Please try again or contact us directly via email."
)

var ErrSubmissionInProgress = errors.New("submission already in progress")

type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeDelivered
	OutcomeFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeFallback:
		return "fallback"
	default:
		return "failed"
	}
}

// Notifier surfaces outcomes to the user; *notice.Board satisfies it.
type Notifier interface {
	Show(severity notice.Severity, title, detail string, duration time.Duration) string
}

// DispatchError is a non-2xx answer from the dispatch endpoint.
type DispatchError struct {
	StatusCode int
	Message    string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch endpoint returned %d: %s", e.StatusCode, e.Message)
}

type Config struct {
	Endpoint      string // base URL, "/send-email" is appended
	Token         string
	OperatorEmail string
	BrandName     string
	Timeout       time.Duration
	Idempotency   bool
	HTTPClient    *http.Client
	Opener        Opener
	Notifier      Notifier
	Logger        *log.Logger
}

// Client posts submissions to the dispatch endpoint and degrades to a
// local fallback link when delivery cannot be confirmed.
type Client struct {
	url         string
	token       string
	operator    string
	brand       string
	timeout     time.Duration
	idempotency bool
	http        *http.Client
	opener      Opener
	notifier    Notifier
	logger      *log.Logger
	newKey      func() string
	inFlight    atomic.Bool
}

func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("submission: endpoint is required")
	}
	if strings.TrimSpace(cfg.OperatorEmail) == "" {
		return nil, errors.New("submission: operator email is required")
	}

	c := &Client{
		url:         endpoint + sendEmailPath,
		token:       cfg.Token,
		operator:    cfg.OperatorEmail,
		brand:       orDefault(cfg.BrandName, defaultBrandName),
		timeout:     cfg.Timeout,
		idempotency: cfg.Idempotency,
		http:        cfg.HTTPClient,
		opener:      cfg.Opener,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
		newKey:      uuid.NewString,
	}

	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.logger == nil {
		c.logger = log.NewTextLogger(os.Stderr, slog.LevelWarn)
	}
	if c.http == nil {
		c.http = &http.Client{Transport: log.NewTransport(nil, c.logger)}
	}
	if c.opener == nil {
		c.opener = NewSystemOpener()
	}
	if c.notifier == nil {
		c.notifier = notice.NewBoard()
	}

	return c, nil
}

type dispatchRequest struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type dispatchResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Replayed bool   `json:"replayed,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SubmitContact delivers a contact submission, opening a mail composer
// addressed to the operator if the endpoint cannot confirm delivery.
func (c *Client) SubmitContact(ctx context.Context, sub form.ContactSubmission) (Outcome, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return OutcomeFailed, ErrSubmissionInProgress
	}
	defer c.inFlight.Store(false)

	ctx, logger := c.correlate(ctx)

	resp, err := c.post(ctx, kindContact, sub)
	if err == nil {
		logger.Info("Contact submission delivered", "replayed", resp.Replayed)
		c.notifier.Show(notice.Success, MsgContactSent, "", 0)
		return OutcomeDelivered, nil
	}

	logger.Warn("Contact dispatch failed, falling back to mail composer", "error", err)
	return c.fallback(ctx, logger, MailtoLink(c.operator, sub), MsgContactFallback)
}

// ScheduleMeeting delivers a meeting request, opening a calendar event
// template if the endpoint cannot confirm delivery.
func (c *Client) ScheduleMeeting(ctx context.Context, req form.MeetingRequest) (Outcome, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return OutcomeFailed, ErrSubmissionInProgress
	}
	defer c.inFlight.Store(false)

	ctx, logger := c.correlate(ctx)

	resp, err := c.post(ctx, kindMeeting, req)
	if err == nil {
		logger.Info("Meeting request delivered", "replayed", resp.Replayed)
		c.notifier.Show(notice.Success, MsgMeetingScheduled, "", 0)
		return OutcomeDelivered, nil
	}

	logger.Warn("Meeting dispatch failed, falling back to calendar link", "error", err)

	link, linkErr := CalendarLink(c.brand, req)
	if linkErr != nil {
		logger.Error("Failed to build calendar link", "error", linkErr)
		c.notifier.Show(notice.Error, MsgMeetingFailed, MsgMeetingFailedHint, 0)
		return OutcomeFailed, linkErr
	}

	return c.fallback(ctx, logger, link, MsgMeetingFallback)
}

func (c *Client) correlate(ctx context.Context) (context.Context, *log.Logger) {
	ctx = log.ContextWithCorrelationID(ctx, log.GetOrGenerateCorrelationID(ctx))
	return ctx, c.logger.WithCorrelationID(ctx)
}

func (c *Client) fallback(ctx context.Context, logger *log.Logger, link, message string) (Outcome, error) {
	if err := c.opener.Open(ctx, link); err != nil {
		logger.Error("Fallback link could not be opened", "error", err)
		c.notifier.Show(notice.Error, MsgFallbackFailed, link, 0)
		return OutcomeFailed, err
	}

	c.notifier.Show(notice.Warning, message, "", 0)
	return OutcomeFallback, nil
}

func (c *Client) post(ctx context.Context, kind string, data any) (*dispatchResponse, error) {
	body, err := json.Marshal(dispatchRequest{Type: kind, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s submission: %w", kind, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.idempotency {
		req.Header.Set(IdempotencyKeyHeader, c.newKey())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read dispatch response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DispatchError{StatusCode: resp.StatusCode, Message: errorMessage(raw, kind)}
	}

	var out dispatchResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode dispatch response: %w", err)
	}
	return &out, nil
}

// errorMessage prefers the JSON "error" field, then the raw body.
func errorMessage(raw []byte, kind string) string {
	var body dispatchResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	if kind == kindMeeting {
		return "Failed to schedule meeting"
	}
	return "Failed to send contact form"
}
