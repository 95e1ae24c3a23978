package ui

import (
	"sync"
	"time"

	"financeai/internal/insights"
)

// DefaultAlertDelay is how long an alert stays visible.
const DefaultAlertDelay = 8 * time.Second

// Notice is a visible alert.
type Notice struct {
	ID      int
	Alert   insights.Alert
	Message string
	Shown   time.Time
}

// AlertBoard holds informational alerts that dismiss themselves after a delay.
type AlertBoard struct {
	mu      sync.Mutex
	delay   time.Duration
	nextID  int
	notices []Notice
	timers  map[int]func() bool
	after   func(time.Duration, func()) func() bool
	now     func() time.Time
}

type AlertOption func(*AlertBoard)

// WithAlertDelay overrides DefaultAlertDelay.
func WithAlertDelay(d time.Duration) AlertOption {
	return func(b *AlertBoard) {
		if d > 0 {
			b.delay = d
		}
	}
}

// WithAlertTimer replaces time.AfterFunc. The returned func stops the timer.
func WithAlertTimer(after func(time.Duration, func()) func() bool) AlertOption {
	return func(b *AlertBoard) { b.after = after }
}

func NewAlertBoard(opts ...AlertOption) *AlertBoard {
	b := &AlertBoard{
		delay:  DefaultAlertDelay,
		timers: make(map[int]func() bool),
		after: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Push shows an alert and schedules its dismissal.
func (b *AlertBoard) Push(a insights.Alert) int {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.notices = append(b.notices, Notice{ID: id, Alert: a, Message: a.Message(), Shown: b.now()})
	b.mu.Unlock()

	stop := b.after(b.delay, func() { b.Dismiss(id) })

	b.mu.Lock()
	if b.contains(id) {
		b.timers[id] = stop
	}
	b.mu.Unlock()
	return id
}

func (b *AlertBoard) Dismiss(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if stop, ok := b.timers[id]; ok {
		stop()
		delete(b.timers, id)
	}
	for i, n := range b.notices {
		if n.ID == id {
			b.notices = append(b.notices[:i], b.notices[i+1:]...)
			return
		}
	}
}

// Active returns the alerts currently visible, oldest first.
func (b *AlertBoard) Active() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notice, len(b.notices))
	copy(out, b.notices)
	return out
}

// Close cancels pending dismissals and clears the board.
func (b *AlertBoard) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, stop := range b.timers {
		stop()
		delete(b.timers, id)
	}
	b.notices = nil
}

func (b *AlertBoard) contains(id int) bool {
	for _, n := range b.notices {
		if n.ID == id {
			return true
		}
	}
	return false
}
