package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"PlateBot/internal/domain"
	"PlateBot/internal/ports"
)

// ErrEmptyPool reports that no unreviewed records remain. Callers surface it
// to the initiator; it is not fatal to the process.
var ErrEmptyPool = errors.New("record pool is empty")

// Pool owns the corpus of unreviewed records. Every record it holds has been
// neither approved nor rejected; the pool only shrinks. All mutation goes
// through the pool's lock, and every removal is persisted before the record
// is handed out, so a crash never resurrects a distributed record.
type Pool struct {
	mu      sync.Mutex
	records []domain.Record
	initial int
	store   ports.RecordStore
	logger  *slog.Logger
}

// New loads the pool from its store. initialTotal is the size of the source
// corpus and fixes the completion denominator; pass 0 to fall back to the
// loaded size.
func New(store ports.RecordStore, initialTotal int, logger *slog.Logger) (*Pool, error) {
	if store == nil {
		return nil, fmt.Errorf("pool: record store is not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}

	records, err := store.LoadRecords()
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	if initialTotal <= 0 {
		initialTotal = len(records)
	}

	return &Pool{
		records: records,
		initial: initialTotal,
		store:   store,
		logger:  logger,
	}, nil
}

// Sample removes a uniformly random record, persists the shrunk pool, and
// returns the record. A failed persist restores the record and reports the
// failure; the mutation did not happen.
func (p *Pool) Sample() (domain.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.records) == 0 {
		return domain.Record{}, ErrEmptyPool
	}

	idx := rand.Intn(len(p.records))
	rec := p.records[idx]
	p.records = append(p.records[:idx], p.records[idx+1:]...)

	if err := p.store.SaveRecords(p.records); err != nil {
		p.records = append(p.records, domain.Record{})
		copy(p.records[idx+1:], p.records[idx:])
		p.records[idx] = rec
		return domain.Record{}, fmt.Errorf("persist pool: %w", err)
	}

	p.logger.Debug("sampled record", "id", rec.ID, "text", rec.Text, "remaining", len(p.records))
	return rec, nil
}

// Size returns how many records remain.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

// Completion returns the processed share of the source corpus in [0,1].
// Monotonically non-decreasing across the pool's life.
func (p *Pool) Completion() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initial == 0 {
		return 0
	}
	return float64(p.initial-len(p.records)) / float64(p.initial)
}
