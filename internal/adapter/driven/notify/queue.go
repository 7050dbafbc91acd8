// Package notify implements the Notifier port as an in-process toast queue.
package notify

import (
	"log/slog"
	"sync"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
	"github.com/ericfisherdev/brainpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*Queue)(nil)

// DefaultCapacity bounds the number of undelivered notifications kept.
const DefaultCapacity = 32

// Queue buffers notifications until the session they belong to drains them.
// Capacity is shared by all sessions; when full, the oldest notification is
// dropped so Notify never blocks and closed sessions cannot pin memory.
type Queue struct {
	mu       sync.Mutex
	items    []model.Notification
	capacity int
	logger   *slog.Logger
}

// NewQueue creates a Queue holding at most capacity notifications.
func NewQueue(capacity int, logger *slog.Logger) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{capacity: capacity, logger: logger}
}

// Notify enqueues n. It never blocks and never fails.
func (q *Queue) Notify(n model.Notification) {
	if n.Severity == "" {
		n.Severity = model.SeverityDefault
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == q.capacity {
		q.logger.Warn("notification queue full, dropping oldest", "title", q.items[0].Title)
		q.items = q.items[1:]
	}
	q.items = append(q.items, n)
}

// Drain returns and removes the notifications queued for panelID, in
// arrival order. Notifications of other panels stay queued.
func (q *Queue) Drain(panelID string) []model.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := []model.Notification{}
	kept := q.items[:0]
	for _, n := range q.items {
		if n.PanelID == panelID {
			out = append(out, n)
			continue
		}
		kept = append(kept, n)
	}
	clear(q.items[len(kept):])
	q.items = kept
	return out
}

// Len returns the number of queued notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
