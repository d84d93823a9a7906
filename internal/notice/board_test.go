package notice

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

func newTestBoard() (*Board, *fakeClock) {
	clock := newFakeClock()
	return NewBoard(WithClock(clock.Now, clock.AfterFunc)), clock
}

func TestBoard_DefaultDurationExpires(t *testing.T) {
	board, clock := newTestBoard()

	id := board.Show(Success, "Message sent", "", 0)
	require.Len(t, board.Visible(), 1)
	assert.Equal(t, DefaultDuration, board.Visible()[0].Duration)

	clock.Advance(4999 * time.Millisecond)
	assert.Len(t, board.Visible(), 1)

	clock.Advance(time.Millisecond)
	assert.Empty(t, board.Visible())
	assert.False(t, board.Dismiss(id))
}

func TestBoard_DismissCancelsTimer(t *testing.T) {
	board, clock := newTestBoard()

	id := board.Show(Warning, "Fallback", "", 0)
	assert.True(t, board.Dismiss(id))
	assert.Empty(t, board.Visible())

	require.Len(t, clock.timers, 1)
	assert.True(t, clock.timers[0].stopped)

	clock.Advance(10 * time.Second)
	assert.False(t, clock.timers[0].fired)
}

func TestBoard_IndependentTimersNewestFirst(t *testing.T) {
	board, clock := newTestBoard()

	board.Show(Info, "first", "", 2*time.Second)
	second := board.Show(Error, "second", "", 0)

	visible := board.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "second", visible[0].Title)
	assert.Equal(t, "first", visible[1].Title)

	clock.Advance(2 * time.Second)
	visible = board.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, second, visible[0].ID)
}

func TestBoard_OnChangeReceivesSnapshots(t *testing.T) {
	board, clock := newTestBoard()

	var counts []int
	board.OnChange(func(n []Notice) { counts = append(counts, len(n)) })

	board.Show(Success, "a", "", time.Second)
	board.Show(Success, "b", "", time.Second)
	clock.Advance(time.Second)

	assert.Equal(t, []int{1, 2, 1, 0}, counts)
}

func TestBoard_RealTimerExpires(t *testing.T) {
	board := NewBoard()
	board.Show(Info, "short", "", 10*time.Millisecond)

	assert.Eventually(t, func() bool { return len(board.Visible()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestRender_IncludesTitleDetailAndSeverity(t *testing.T) {
	out := Render(Notice{Severity: Warning, Title: "Opening email client", Detail: "Please send manually."})

	assert.Contains(t, out, "Opening email client")
	assert.Contains(t, out, "Please send manually.")
	assert.Contains(t, out, "Warning")
}

func TestRender_SafeFromTimerGoroutines(t *testing.T) {
	severities := []Severity{Success, Error, Warning, Info}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = Render(Notice{Severity: severities[i%len(severities)], Title: "Message Sent!"})
		}()
	}
	wg.Wait()

	for i, out := range results {
		assert.Contains(t, out, "Message Sent!")
		assert.Contains(t, out, []string{"Success", "Error", "Warning", "Info"}[i%len(severities)])
	}
}
