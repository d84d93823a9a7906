package submission

import (
	"net/url"
	"strings"
	"testing"

	"github.com/akeren/digitalcraft-dispatch/internal/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarLink_ThirtyMinuteUTCWindow(t *testing.T) {
	link, err := CalendarLink("DigitalCraft", form.MeetingRequest{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Date:    "2025-06-01",
		Time:    "14:00",
		Message: "Talk about analytics",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "calendar.google.com", parsed.Host)
	assert.Equal(t, "TEMPLATE", q.Get("action"))
	assert.Equal(t, "20250601T140000Z/20250601T143000Z", q.Get("dates"))
	assert.Equal(t, "DigitalCraft Consultation - Ada Lovelace", q.Get("text"))
	assert.Equal(t, "Consultation meeting with Ada Lovelace\nEmail: ada@example.com\nTalk about analytics", q.Get("details"))
	assert.Equal(t, "Online Meeting", q.Get("location"))
	assert.Contains(t, link, "location=Online%20Meeting")
}

func TestCalendarLink_CrossesMidnight(t *testing.T) {
	start, end, err := MeetingWindow(form.MeetingRequest{Date: "2025-12-31", Time: "23:45"})
	require.NoError(t, err)

	assert.Equal(t, "20251231T234500Z", start.Format(calendarStamp))
	assert.Equal(t, "20260101T001500Z", end.Format(calendarStamp))
}

func TestCalendarLink_RejectsUnparsableDate(t *testing.T) {
	_, err := CalendarLink("", form.MeetingRequest{Date: "tomorrow", Time: "14:00"})
	assert.Error(t, err)
}

func TestMailtoLink_FormatsEveryField(t *testing.T) {
	link := MailtoLink("hello@digitalcraft.com", form.ContactSubmission{
		Name:    "Ada & Co",
		Email:   "ada@example.com",
		Service: "UI/UX Design",
		Message: "Hi there",
	})

	require.True(t, strings.HasPrefix(link, "mailto:hello@digitalcraft.com?"))

	q, err := url.ParseQuery(strings.SplitN(link, "?", 2)[1])
	require.NoError(t, err)

	assert.Equal(t, "Contact Form Submission from Ada & Co", q.Get("subject"))
	assert.Equal(t, strings.Join([]string{
		"Name: Ada & Co",
		"Email: ada@example.com",
		"Company: Not provided",
		"Service: UI/UX Design",
		"Budget: Not specified",
		"",
		"Message:",
		"Hi there",
	}, "\n"), q.Get("body"))
	assert.NotContains(t, link, "+")
}
