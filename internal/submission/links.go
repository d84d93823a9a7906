package submission

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/akeren/digitalcraft-dispatch/internal/form"
)

const (
	calendarBaseURL   = "https://calendar.google.com/calendar/render"
	calendarStamp     = "20060102T150405Z"
	meetingLength     = 30 * time.Minute
	meetingLocation   = "Online Meeting"
	defaultBrandName  = "DigitalCraft"
	companyFallback   = "Not provided"
	budgetFallback    = "Not specified"
	mailSubjectPrefix = "Contact Form Submission from "
)

var meetingLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

// escape matches encodeURIComponent: spaces become %20, not '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// MailtoLink builds a pre-filled mail composer link addressed to operator.
func MailtoLink(operator string, c form.ContactSubmission) string {
	body := strings.Join([]string{
		"Name: " + c.Name,
		"Email: " + c.Email,
		"Company: " + orDefault(c.Company, companyFallback),
		"Service: " + c.Service,
		"Budget: " + orDefault(c.Budget, budgetFallback),
		"",
		"Message:",
		c.Message,
	}, "\n")

	return fmt.Sprintf("mailto:%s?subject=%s&body=%s",
		operator,
		escape(mailSubjectPrefix+c.Name),
		escape(strings.TrimSpace(body)),
	)
}

// MeetingWindow returns the 30 minute slot starting at date+time, read as UTC.
func MeetingWindow(m form.MeetingRequest) (time.Time, time.Time, error) {
	raw := strings.TrimSpace(m.Date) + "T" + strings.TrimSpace(m.Time)

	var lastErr error
	for _, layout := range meetingLayouts {
		start, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return start, start.Add(meetingLength), nil
		}
		lastErr = err
	}

	return time.Time{}, time.Time{}, fmt.Errorf("invalid meeting date/time %q: %w", raw, lastErr)
}

// CalendarLink builds a Google Calendar event template link for the meeting.
func CalendarLink(brand string, m form.MeetingRequest) (string, error) {
	start, end, err := MeetingWindow(m)
	if err != nil {
		return "", err
	}

	brand = orDefault(brand, defaultBrandName)
	details := fmt.Sprintf("Consultation meeting with %s\nEmail: %s\n%s", m.Name, m.Email, m.Message)

	return fmt.Sprintf("%s?action=TEMPLATE&text=%s&dates=%s/%s&details=%s&location=%s",
		calendarBaseURL,
		escape(brand+" Consultation - "+m.Name),
		start.Format(calendarStamp),
		end.Format(calendarStamp),
		escape(details),
		escape(meetingLocation),
	), nil
}
