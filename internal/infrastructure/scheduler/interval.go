package scheduler

import (
	"context"
	"sync"
	"time"

	"PlateBot/internal/ports"
)

// IntervalScheduler runs a job on a fixed interval using time.Ticker.
type IntervalScheduler struct {
	interval    time.Duration
	immediately bool

	mu   sync.Mutex
	stop chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewInterval builds a scheduler firing every interval. When immediately is
// set, the job also runs once right after Start.
func NewInterval(interval time.Duration, immediately bool) *IntervalScheduler {
	return &IntervalScheduler{interval: interval, immediately: immediately}
}

// Start begins ticking.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		if s.immediately {
			job(time.Now())
		}
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
