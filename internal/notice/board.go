package notice

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

const DefaultDuration = 5 * time.Second

type Notice struct {
	ID        string
	Severity  Severity
	Title     string
	Detail    string
	CreatedAt time.Time
	Duration  time.Duration
}

// Timer is the handle returned by a scheduler; *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

type Option func(*Board)

// WithClock replaces the wall clock and the timer scheduler.
func WithClock(now func() time.Time, after AfterFunc) Option {
	return func(b *Board) {
		if now != nil {
			b.now = now
		}
		if after != nil {
			b.after = after
		}
	}
}

type entry struct {
	notice Notice
	timer  Timer
}

// Board keeps the visible notices. Each notice expires on its own timer.
type Board struct {
	mu          sync.Mutex
	entries     []*entry // newest first
	subscribers []func([]Notice)
	now         func() time.Time
	after       AfterFunc
}

func NewBoard(opts ...Option) *Board {
	b := &Board{
		now: time.Now,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OnChange registers fn to receive the visible list after every change.
func (b *Board) OnChange(fn func([]Notice)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

// Show displays a notice and returns its id. A non-positive duration uses
// DefaultDuration.
func (b *Board) Show(severity Severity, title, detail string, duration time.Duration) string {
	if duration <= 0 {
		duration = DefaultDuration
	}

	n := Notice{
		ID:        uuid.NewString(),
		Severity:  severity,
		Title:     title,
		Detail:    detail,
		CreatedAt: b.now(),
		Duration:  duration,
	}

	b.mu.Lock()
	e := &entry{notice: n}
	b.entries = append([]*entry{e}, b.entries...)
	e.timer = b.after(duration, func() { b.remove(n.ID, false) })
	b.mu.Unlock()

	b.notify()
	return n.ID
}

// Dismiss removes a notice immediately and cancels its pending expiry.
func (b *Board) Dismiss(id string) bool {
	return b.remove(id, true)
}

func (b *Board) remove(id string, stopTimer bool) bool {
	b.mu.Lock()
	idx := -1
	for i, e := range b.entries {
		if e.notice.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return false
	}

	e := b.entries[idx]
	b.entries = append(b.entries[:idx], b.entries[idx+1:]...)
	b.mu.Unlock()

	if stopTimer && e.timer != nil {
		e.timer.Stop()
	}

	b.notify()
	return true
}

// Visible returns the current notices, newest first.
func (b *Board) Visible() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Board) snapshotLocked() []Notice {
	out := make([]Notice, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.notice
	}
	return out
}

func (b *Board) notify() {
	b.mu.Lock()
	visible := b.snapshotLocked()
	subs := append([]func([]Notice){}, b.subscribers...)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(visible)
	}
}
