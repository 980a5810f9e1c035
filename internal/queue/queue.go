package queue

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"PlateBot/internal/domain"
	"PlateBot/internal/ports"
)

// ErrEmptyQueue reports that nothing is waiting to be published. Callers
// treat it as "nothing to do now", not as a bug.
var ErrEmptyQueue = errors.New("publish queue is empty")

// Queue owns the ordered list of approved entries awaiting publication.
// Every mutation is persisted in full before it is acknowledged; a failed
// persist rolls the in-memory change back.
//
// Ordering: a freshly approved batch drains before older entries, and within
// a batch the most recently approved entry posts first.
type Queue struct {
	mu      sync.Mutex
	entries []domain.QueueEntry
	store   ports.QueueStore
	logger  *slog.Logger
}

// New loads the queue from its store.
func New(store ports.QueueStore, logger *slog.Logger) (*Queue, error) {
	if store == nil {
		return nil, fmt.Errorf("queue: store is not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := store.LoadQueue()
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}

	return &Queue{entries: entries, store: store, logger: logger}, nil
}

// Enqueue adds a batch of approved entries, preserving the batch's internal
// approval order, and persists immediately.
func (q *Queue) Enqueue(batch []domain.QueueEntry) error {
	if len(batch) == 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	prev := len(q.entries)
	q.entries = append(q.entries, batch...)

	if err := q.store.SaveQueue(q.entries); err != nil {
		q.entries = q.entries[:prev]
		return fmt.Errorf("persist queue: %w", err)
	}

	q.logger.Debug("enqueued batch", "size", len(batch), "depth", len(q.entries))
	return nil
}

// DequeueOne removes and returns the next entry to publish, persisting the
// shrunk queue before handing it out. Returns ErrEmptyQueue when empty.
func (q *Queue) DequeueOne() (domain.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return domain.QueueEntry{}, ErrEmptyQueue
	}

	last := len(q.entries) - 1
	entry := q.entries[last]
	q.entries = q.entries[:last]

	if err := q.store.SaveQueue(q.entries); err != nil {
		q.entries = append(q.entries, entry)
		return domain.QueueEntry{}, fmt.Errorf("persist queue: %w", err)
	}

	q.logger.Debug("dequeued entry", "text", entry.Record.Text, "depth", len(q.entries))
	return entry, nil
}

// Depth returns how many entries are waiting, without mutating anything.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Texts returns the plate texts currently queued, in publish order.
func (q *Queue) Texts() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	texts := make([]string, 0, len(q.entries))
	for i := len(q.entries) - 1; i >= 0; i-- {
		texts = append(texts, q.entries[i].Record.Text)
	}
	return texts
}
