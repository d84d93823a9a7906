package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akeren/digitalcraft-dispatch/config/router"
	"github.com/akeren/digitalcraft-dispatch/internal/log"
	"github.com/akeren/digitalcraft-dispatch/pkg/idempotency"
	"github.com/akeren/digitalcraft-dispatch/pkg/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const sendEmailPath = "/functions/v1/send-email"

func newTestRouter(t *testing.T, opts ControllerOptions) (*router.RouterService, *MockMailer) {
	t.Helper()
	return newTestRouterWithStore(t, opts, idempotency.NewInMemoryStore())
}

func newTestRouterWithStore(t *testing.T, opts ControllerOptions, store idempotency.Store) (*router.RouterService, *MockMailer) {
	t.Helper()
	t.Setenv("METRICS_ENABLED", "true")

	ctrl := gomock.NewController(t)
	mockMailer := NewMockMailer(ctrl)
	mockMailer.EXPECT().Provider().Return("fake").AnyTimes()

	logger := log.NewLoggerWithJSONOutput()
	rs := router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})

	if opts.OperatorEmail == "" {
		opts.OperatorEmail = operatorEmail
	}
	if opts.RateLimitRequests == 0 {
		opts.RateLimitRequests = 1000
	}

	rs.MountController(NewDispatchController(&Dependencies{
		Logger:  logger,
		Mailer:  mockMailer,
		Store:   store,
		Options: opts,
	}))

	return rs, mockMailer
}

func post(rs *router.RouterService, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, sendEmailPath, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func assertCORS(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "authorization, x-client-info, apikey, content-type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

const contactBody = `{"type":"contact","data":{"name":"Ada","email":"ada@example.com","service":"UI/UX Design","message":"Hello"}}`

func TestSendEmail_Preflight(t *testing.T) {
	rs, _ := newTestRouter(t, ControllerOptions{})

	req := httptest.NewRequest(http.MethodOptions, sendEmailPath, nil)
	req.Header.Set("Origin", "https://digitalcraft.example")
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assertCORS(t, w)
}

func TestSendEmail_Contact(t *testing.T) {
	rs, mockMailer := newTestRouter(t, ControllerOptions{})
	mockMailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	w := post(rs, contactBody, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"message":"Contact form submitted successfully"}`, w.Body.String())
	assertCORS(t, w)
}

func TestSendEmail_Meeting(t *testing.T) {
	rs, mockMailer := newTestRouter(t, ControllerOptions{})
	mockMailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	body := `{"type":"meeting","data":{"name":"Grace","email":"grace@example.com","date":"2025-06-01","time":"14:00","timezone":"UTC"}}`
	w := post(rs, body, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"message":"Meeting scheduled successfully"}`, w.Body.String())
}

func TestSendEmail_ValidationRejectsWithoutDelivery(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		message string
		field   string
	}{
		{
			name:    "contact missing service",
			body:    `{"type":"contact","data":{"name":"Ada","email":"ada@example.com","message":"Hello"}}`,
			message: "Missing required contact fields",
			field:   "service",
		},
		{
			name:    "contact empty name",
			body:    `{"type":"contact","data":{"name":"","email":"ada@example.com","service":"x","message":"Hello"}}`,
			message: "Missing required contact fields",
			field:   "name",
		},
		{
			name:    "contact non-string email",
			body:    `{"type":"contact","data":{"name":"Ada","email":42,"service":"x","message":"Hello"}}`,
			message: "Missing required contact fields",
			field:   "email",
		},
		{
			name:    "meeting missing timezone",
			body:    `{"type":"meeting","data":{"name":"Grace","email":"g@example.com","date":"2025-06-01","time":"14:00"}}`,
			message: "Missing required meeting fields",
			field:   "timezone",
		},
		{
			name:    "meeting data not an object",
			body:    `{"type":"meeting","data":["Grace"]}`,
			message: "Missing required meeting fields",
		},
		{
			name:    "contact without data",
			body:    `{"type":"contact"}`,
			message: "Missing required contact fields",
		},
		{
			name:    "unknown type",
			body:    `{"type":"newsletter","data":{}}`,
			message: "Invalid request type",
		},
		{
			name:    "numeric type",
			body:    `{"type":5,"data":{}}`,
			message: "Invalid request type",
		},
		{
			name:    "null type",
			body:    `{"type":null,"data":{}}`,
			message: "Invalid request type",
		},
		{
			name:    "object type",
			body:    `{"type":{"kind":"contact"},"data":{}}`,
			message: "Invalid request type",
		},
		{
			name:    "missing type",
			body:    `{"data":{"name":"Ada"}}`,
			message: "Invalid request type",
		},
		{
			name:    "contact email with header break",
			body:    `{"type":"contact","data":{"name":"Ada","email":"ada@example.com\r\nBcc: victim@evil.test","service":"x","message":"Hello"}}`,
			message: "Missing required contact fields",
			field:   "email",
		},
		{
			name:    "meeting name with header break",
			body:    `{"type":"meeting","data":{"name":"Grace\nX-Injected: yes","email":"g@example.com","date":"2025-06-01","time":"14:00","timezone":"UTC"}}`,
			message: "Missing required meeting fields",
			field:   "name",
		},
		{
			name:    "malformed json",
			body:    `{"type":`,
			message: "Invalid request body",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// No Send expectation: any delivery attempt fails the test.
			rs, _ := newTestRouter(t, ControllerOptions{})

			w := post(rs, tc.body, nil)

			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			resp := decodeError(t, w)
			assert.Equal(t, tc.message, resp.Error)
			assertCORS(t, w)

			if tc.field != "" {
				require.NotEmpty(t, resp.Fields)
				assert.Equal(t, tc.field, resp.Fields[0].Field)
			}
		})
	}
}

func TestSendEmail_MissingAnyRequiredFieldIsRejected(t *testing.T) {
	kinds := []struct {
		kind     string
		message  string
		data     map[string]string
		required []string
	}{
		{
			kind:    "contact",
			message: "Missing required contact fields",
			data: map[string]string{
				"name": "Ada", "email": "ada@example.com", "company": "Analytical Engines",
				"service": "UI/UX Design", "budget": "$5,000 - $10,000", "message": "Hello",
			},
			required: []string{"name", "email", "service", "message"},
		},
		{
			kind:    "meeting",
			message: "Missing required meeting fields",
			data: map[string]string{
				"name": "Grace", "email": "grace@example.com", "date": "2025-06-01",
				"time": "14:00", "timezone": "UTC", "message": "Agenda",
			},
			required: []string{"name", "email", "date", "time", "timezone"},
		},
	}

	for _, k := range kinds {
		for _, field := range k.required {
			for _, mode := range []string{"absent", "empty"} {
				t.Run(k.kind+"/"+field+"/"+mode, func(t *testing.T) {
					data := maps.Clone(k.data)
					if mode == "absent" {
						delete(data, field)
					} else {
						data[field] = ""
					}
					body, err := json.Marshal(map[string]any{"type": k.kind, "data": data})
					require.NoError(t, err)

					// No Send expectation: any delivery attempt fails the test.
					rs, _ := newTestRouter(t, ControllerOptions{})
					w := post(rs, string(body), nil)

					require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
					resp := decodeError(t, w)
					assert.Equal(t, k.message, resp.Error)
					require.Len(t, resp.Fields, 1)
					assert.Equal(t, field, resp.Fields[0].Field)
				})
			}
		}
	}
}

func TestSendEmail_DeliveryFailureIs502(t *testing.T) {
	rs, mockMailer := newTestRouter(t, ControllerOptions{})
	mockMailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(&mailer.ProviderError{Provider: "fake", StatusCode: 500, Body: "secret detail"})

	w := post(rs, contactBody, nil)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"Failed to send email","code":"DELIVERY_FAILED"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret detail")
	assertCORS(t, w)
}

func TestSendEmail_IdempotentReplay(t *testing.T) {
	rs, mockMailer := newTestRouter(t, ControllerOptions{})
	mockMailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	headers := map[string]string{IdempotencyKeyHeader: "3b5d6a0c-submission"}

	first := post(rs, contactBody, headers)
	require.Equal(t, http.StatusOK, first.Code)

	second := post(rs, contactBody, headers)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, `{"success":true,"message":"Contact form submitted successfully","replayed":true}`, second.Body.String())
}

func TestSendEmail_InFlightKeyIsConflict(t *testing.T) {
	store := idempotency.NewInMemoryStore()
	rs, _ := newTestRouterWithStore(t, ControllerOptions{}, store)

	_, err := store.Reserve(context.Background(), "contact:pending-key", time.Minute)
	require.NoError(t, err)

	w := post(rs, contactBody, map[string]string{IdempotencyKeyHeader: "pending-key"})

	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.JSONEq(t, `{"error":"Submission with this Idempotency-Key is still being processed","code":"CONFLICT"}`, w.Body.String())
	assertCORS(t, w)
}

func TestSendEmail_RejectsOversizedIdempotencyKey(t *testing.T) {
	rs, _ := newTestRouter(t, ControllerOptions{})

	w := post(rs, contactBody, map[string]string{IdempotencyKeyHeader: string(bytes.Repeat([]byte("k"), 300))})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid Idempotency-Key header", decodeError(t, w).Error)
}

func TestSendEmail_APIKeyAuth(t *testing.T) {
	rs, mockMailer := newTestRouter(t, ControllerOptions{APIKey: "anon-key"})

	w := post(rs, contactBody, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, w).Code)
	assertCORS(t, w)

	w = post(rs, contactBody, map[string]string{"Authorization": "Bearer wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	mockMailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	w = post(rs, contactBody, map[string]string{"Authorization": "Bearer anon-key"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestSendEmail_PreflightSkipsAuth(t *testing.T) {
	rs, _ := newTestRouter(t, ControllerOptions{APIKey: "anon-key"})

	req := httptest.NewRequest(http.MethodOptions, sendEmailPath, nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestSendEmail_RouteRateLimit(t *testing.T) {
	rs, mockMailer := newTestRouter(t, ControllerOptions{RateLimitRequests: 1, RateLimitWindow: time.Hour})
	mockMailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	require.Equal(t, http.StatusOK, post(rs, contactBody, nil).Code)

	w := post(rs, contactBody, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assertCORS(t, w)
}

func TestSendEmail_ExposesDispatchMetrics(t *testing.T) {
	rs, _ := newTestRouter(t, ControllerOptions{})

	post(rs, `{"type":"contact","data":{}}`, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `dispatch_submissions_total{kind="contact",outcome="rejected"} 1`)
}
