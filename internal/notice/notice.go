// Package notice holds the single transient notice shown after an action.
package notice

import (
	"sync"
	"time"
)

// DefaultDuration is how long a notice stays visible.
const DefaultDuration = 3 * time.Second

// Kind is the tone of a notice.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Notice is a snapshot of the slot.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Visible bool   `json:"visible"`
}

// Queue is a single-slot notice holder. Show replaces whatever is displayed
// and the slot clears itself after the display duration. Each Show bumps a
// generation so a replaced notice's timer never clears its successor.
type Queue struct {
	duration time.Duration

	mu         sync.Mutex
	current    Notice
	generation uint64
	timer      *time.Timer
	onChange   func(Notice)
}

// New creates a Queue. A non-positive duration uses DefaultDuration.
func New(duration time.Duration) *Queue {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Queue{duration: duration}
}

// Duration returns the display duration.
func (q *Queue) Duration() time.Duration {
	return q.duration
}

// OnChange registers fn to be called after every change of the slot. fn
// runs without the queue lock held.
func (q *Queue) OnChange(fn func(Notice)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = fn
}

// Show displays a notice, replacing the current one.
func (q *Queue) Show(kind Kind, message string) {
	q.mu.Lock()
	q.generation++
	gen := q.generation
	if q.timer != nil {
		q.timer.Stop()
	}
	q.current = Notice{Kind: kind, Message: message, Visible: true}
	q.timer = time.AfterFunc(q.duration, func() { q.expire(gen) })
	snapshot, fn := q.current, q.onChange
	q.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}

// Success shows a success notice.
func (q *Queue) Success(message string) { q.Show(Success, message) }

// Error shows an error notice.
func (q *Queue) Error(message string) { q.Show(Error, message) }

// Hide clears the slot immediately.
func (q *Queue) Hide() {
	q.mu.Lock()
	q.generation++
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	changed := q.current.Visible
	q.current.Visible = false
	snapshot, fn := q.current, q.onChange
	q.mu.Unlock()

	if changed && fn != nil {
		fn(snapshot)
	}
}

// Current returns the slot's state.
func (q *Queue) Current() Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

// Close stops the pending timer without notifying.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.generation++
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

// expire hides the notice shown at generation gen, if it is still the
// current one.
func (q *Queue) expire(gen uint64) {
	q.mu.Lock()
	if gen != q.generation || !q.current.Visible {
		q.mu.Unlock()
		return
	}
	q.current.Visible = false
	q.timer = nil
	snapshot, fn := q.current, q.onChange
	q.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}
