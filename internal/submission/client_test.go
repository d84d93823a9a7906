package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/akeren/digitalcraft-dispatch/internal/form"
	"github.com/akeren/digitalcraft-dispatch/internal/log"
	"github.com/akeren/digitalcraft-dispatch/internal/notice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shown struct {
	severity notice.Severity
	title    string
	detail   string
}

type recordingNotifier struct {
	mu    sync.Mutex
	shown []shown
}

func (n *recordingNotifier) Show(s notice.Severity, title, detail string, _ time.Duration) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shown = append(n.shown, shown{s, title, detail})
	return title
}

type recordingOpener struct {
	links []string
	err   error
}

func (o *recordingOpener) Open(_ context.Context, link string) error {
	o.links = append(o.links, link)
	return o.err
}

type captured struct {
	Path    string
	Auth    string
	CT      string
	Key     string
	Request dispatchRequest
	Data    json.RawMessage
}

func newClient(t *testing.T, handler http.HandlerFunc, opener Opener) (*Client, *recordingNotifier, *bytes.Buffer) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	notifier := &recordingNotifier{}
	var logs bytes.Buffer
	client, err := NewClient(Config{
		Endpoint:      srv.URL + "/functions/v1/",
		Token:         "anon-token",
		OperatorEmail: "hello@digitalcraft.com",
		Timeout:       time.Second,
		Idempotency:   true,
		Opener:        opener,
		Notifier:      notifier,
		Logger:        log.NewTextLogger(&logs, slog.LevelInfo),
	})
	require.NoError(t, err)
	return client, notifier, &logs
}

func contact() form.ContactSubmission {
	return form.ContactSubmission{
		Name:    "Ada",
		Email:   "ada@example.com",
		Company: "Analytical Engines",
		Service: "Web Development",
		Budget:  "₹50K+",
		Message: "Build me a site",
	}
}

func TestSubmitContact_DeliveredSendsEnvelope(t *testing.T) {
	var got captured
	opener := &recordingOpener{}
	client, notifier, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		got.Path = r.URL.Path
		got.Auth = r.Header.Get("Authorization")
		got.CT = r.Header.Get("Content-Type")
		got.Key = r.Header.Get(IdempotencyKeyHeader)

		var env struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		got.Request.Type = env.Type
		got.Data = env.Data

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"Contact form submitted successfully"}`))
	}, opener)

	outcome, err := client.SubmitContact(context.Background(), contact())
	require.NoError(t, err)

	assert.Equal(t, OutcomeDelivered, outcome)
	assert.Equal(t, "/functions/v1/send-email", got.Path)
	assert.Equal(t, "Bearer anon-token", got.Auth)
	assert.Equal(t, "application/json", got.CT)
	assert.Len(t, got.Key, 36)
	assert.Equal(t, "contact", got.Request.Type)

	var data form.ContactSubmission
	require.NoError(t, json.Unmarshal(got.Data, &data))
	assert.Equal(t, contact(), data)

	assert.Empty(t, opener.links)
	require.Len(t, notifier.shown, 1)
	assert.Equal(t, shown{notice.Success, MsgContactSent, ""}, notifier.shown[0])
}

func TestSubmitContact_FallbackOnFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		logged  string
	}{
		{
			name: "json error body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"error":"Failed to send email"}`))
			},
			logged: "Failed to send email",
		},
		{
			name: "plain text body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("upstream exploded"))
			},
			logged: "upstream exploded",
		},
		{
			name: "unparsable success body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>ok</html>"))
			},
			logged: "decode dispatch response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opener := &recordingOpener{}
			client, notifier, logs := newClient(t, tt.handler, opener)

			outcome, err := client.SubmitContact(context.Background(), contact())

			require.NoError(t, err)
			assert.Equal(t, OutcomeFallback, outcome)
			require.Len(t, opener.links, 1)
			assert.Contains(t, opener.links[0], "mailto:hello@digitalcraft.com?")
			assert.Contains(t, opener.links[0], "Build%20me%20a%20site")
			assert.Contains(t, opener.links[0], "Ada")
			assert.Equal(t, []shown{{notice.Warning, MsgContactFallback, ""}}, notifier.shown)
			assert.Contains(t, logs.String(), tt.logged)
		})
	}
}

func TestSubmitContact_NetworkErrorFallsBack(t *testing.T) {
	opener := &recordingOpener{}
	notifier := &recordingNotifier{}
	client, err := NewClient(Config{
		Endpoint:      "http://127.0.0.1:1",
		OperatorEmail: "hello@digitalcraft.com",
		Timeout:       time.Second,
		Opener:        opener,
		Notifier:      notifier,
		Logger:        log.NewTextLogger(&bytes.Buffer{}, slog.LevelError),
	})
	require.NoError(t, err)

	outcome, err := client.SubmitContact(context.Background(), contact())

	require.NoError(t, err)
	assert.Equal(t, OutcomeFallback, outcome)
	assert.Len(t, opener.links, 1)
}

func TestSubmitContact_OpenerFailureIsSurfaced(t *testing.T) {
	opener := &recordingOpener{err: errors.New("no browser")}
	client, notifier, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, opener)

	outcome, err := client.SubmitContact(context.Background(), contact())

	assert.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	require.Len(t, notifier.shown, 1)
	assert.Equal(t, notice.Error, notifier.shown[0].severity)
	assert.Equal(t, opener.links[0], notifier.shown[0].detail)
}

func TestScheduleMeeting_FallbackOpensCalendar(t *testing.T) {
	opener := &recordingOpener{}
	client, notifier, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid request body"}`))
	}, opener)

	outcome, err := client.ScheduleMeeting(context.Background(), form.MeetingRequest{
		Name: "Ada", Email: "ada@example.com", Date: "2025-06-01", Time: "14:00", Timezone: "UTC",
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeFallback, outcome)
	require.Len(t, opener.links, 1)
	assert.Contains(t, opener.links[0], "dates=20250601T140000Z/20250601T143000Z")
	assert.Equal(t, []shown{{notice.Warning, MsgMeetingFallback, ""}}, notifier.shown)
}

func TestScheduleMeeting_Delivered(t *testing.T) {
	client, notifier, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"message":"Meeting scheduled successfully"}`))
	}, &recordingOpener{})

	outcome, err := client.ScheduleMeeting(context.Background(), form.MeetingRequest{
		Name: "Ada", Email: "ada@example.com", Date: "2025-06-01", Time: "14:00", Timezone: "UTC",
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeDelivered, outcome)
	assert.Equal(t, MsgMeetingScheduled, notifier.shown[0].title)
}

func TestSubmit_RejectsConcurrentSubmission(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	client, _, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		_, _ = w.Write([]byte(`{"success":true,"message":"ok"}`))
	}, &recordingOpener{})

	done := make(chan Outcome, 1)
	go func() {
		outcome, _ := client.SubmitContact(context.Background(), contact())
		done <- outcome
	}()

	<-entered
	outcome, err := client.ScheduleMeeting(context.Background(), form.MeetingRequest{Date: "2025-06-01", Time: "14:00"})
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	assert.Equal(t, OutcomeFailed, outcome)

	close(release)
	assert.Equal(t, OutcomeDelivered, <-done)
}

func TestSubmit_TimeoutFallsBack(t *testing.T) {
	opener := &recordingOpener{}
	release := make(chan struct{})

	client, _, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, opener)
	t.Cleanup(func() { close(release) })
	client.timeout = 20 * time.Millisecond

	outcome, err := client.SubmitContact(context.Background(), contact())

	require.NoError(t, err)
	assert.Equal(t, OutcomeFallback, outcome)
}

func TestNewClient_RequiresEndpointAndOperator(t *testing.T) {
	_, err := NewClient(Config{OperatorEmail: "hello@digitalcraft.com"})
	assert.Error(t, err)

	_, err = NewClient(Config{Endpoint: "http://localhost"})
	assert.Error(t, err)
}
