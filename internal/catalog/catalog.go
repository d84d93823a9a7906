package catalog

import (
	"fmt"
	"slices"
	"time"
)

const (
	DateLayout         = "2006-01-02"
	TimeLayout         = "15:04"
	FirstSlotHour      = 9
	LastSlotHour       = 18
	MeetingWindowMonth = 3
)

var Services = []string{
	"Brand Identity Design",
	"UI/UX Design",
	"Web Development",
	"Mobile App Development",
	"CRM Development",
	"AI/ML Solutions",
	"Data Engineering",
	"Brand Management",
	"E-commerce Branding",
	"Consulting",
	"Other",
}

var Budgets = []string{
	"Under ₹5K",
	"₹5K - ₹15K",
	"₹15K - ₹30K",
	"₹30K - ₹50K",
	"₹50K+",
	"Let's Discuss",
}

// Slot is a bookable meeting start time.
type Slot struct {
	Value string // 24h, e.g. "14:00"
	Label string // 12h, e.g. "2:00 PM"
}

// Slots returns the hourly slots from 09:00 to 18:00 inclusive.
func Slots() []Slot {
	slots := make([]Slot, 0, LastSlotHour-FirstSlotHour+1)
	for hour := FirstSlotHour; hour <= LastSlotHour; hour++ {
		slots = append(slots, Slot{
			Value: fmt.Sprintf("%02d:00", hour),
			Label: label12h(hour),
		})
	}
	return slots
}

func label12h(hour int) string {
	switch {
	case hour > 12:
		return fmt.Sprintf("%d:00 PM", hour-12)
	case hour == 12:
		return "12:00 PM"
	default:
		return fmt.Sprintf("%d:00 AM", hour)
	}
}

func IsService(v string) bool { return slices.Contains(Services, v) }

func IsBudget(v string) bool { return v == "" || slices.Contains(Budgets, v) }

func IsSlot(v string) bool {
	return slices.ContainsFunc(Slots(), func(s Slot) bool { return s.Value == v })
}

// DateWindow returns the first and last bookable dates relative to now.
func DateWindow(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	first := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return first, first.AddDate(0, MeetingWindowMonth, 0)
}

// InDateWindow reports whether date (YYYY-MM-DD) falls inside the booking window.
func InDateWindow(date string, now time.Time) bool {
	t, err := time.ParseInLocation(DateLayout, date, now.Location())
	if err != nil {
		return false
	}

	first, last := DateWindow(now)
	return !t.Before(first) && !t.After(last)
}
