package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"PlateBot/internal/domain"
	"PlateBot/internal/pool"
	"PlateBot/internal/ports"
	"PlateBot/internal/queue"
)

// Outcome tags how a session ended.
type Outcome int

const (
	// OutcomeFinished means the reviewer voluntarily stopped.
	OutcomeFinished Outcome = iota
	// OutcomeTimedOut means no decision arrived within the per-item wait.
	OutcomeTimedOut
	// OutcomeExhausted means the pool ran out of records to present.
	OutcomeExhausted
)

// Result carries everything a session produced: the entries approved, in
// approval order, and the terminal outcome.
type Result struct {
	Approved []domain.QueueEntry
	Outcome  Outcome
}

// SessionDeps wires a session's collaborators.
type SessionDeps struct {
	Pool      *pool.Pool
	Queue     *queue.Queue
	Renderer  ports.Renderer
	Presenter ports.Presenter
	Timeout   time.Duration
	// OnQueueChange, when set, is called with the new depth after each
	// approval is enqueued.
	OnQueueChange func(depth int)
	Logger        *slog.Logger
}

// Session is one reviewer's turn-based pass over the pool: sample, present,
// decide, repeat. Exactly one identity drives a session; decisions from
// anyone else are ignored while waiting.
type Session struct {
	initiator string
	deps      SessionDeps
	logger    *slog.Logger
}

// NewSession builds a session for the initiating identity.
func NewSession(initiator string, deps SessionDeps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{initiator: initiator, deps: deps, logger: logger}
}

// Run drives the session until the reviewer finishes, the wait times out,
// the pool is exhausted, or something structural fails. Presentations are
// strictly sequential; never two candidates in flight for one session.
//
// The approvals accumulated before a timeout or exhaustion are returned, not
// discarded; they were already enqueued one by one.
func (s *Session) Run(ctx context.Context) (Result, error) {
	var result Result

	s.logger.Info("review session started", "initiator", s.initiator)

	// Error exits would otherwise leave the last presentation live, with
	// its decision route still registered. Concluded sessions have already
	// cleared it, so this is a no-op on the normal paths.
	defer s.deps.Presenter.DismissCandidate(ctx)

	for {
		rec, err := s.deps.Pool.Sample()
		if errors.Is(err, pool.ErrEmptyPool) {
			result.Outcome = OutcomeExhausted
			s.conclude(ctx, result)
			return result, nil
		}
		if err != nil {
			return result, fmt.Errorf("sample: %w", err)
		}

		artifact, err := s.deps.Renderer.Render(ctx, rec.Text)
		if err != nil {
			return result, fmt.Errorf("render plate %s: %w", rec.Text, err)
		}

		cand := domain.Candidate{Record: rec, ArtifactPath: artifact}
		decisions, err := s.deps.Presenter.PresentCandidate(ctx, cand, domain.PreviewBody(rec))
		if err != nil {
			s.discardArtifact(artifact)
			return result, fmt.Errorf("present plate %s: %w", rec.Text, err)
		}

		decision, wait := s.await(ctx, decisions)
		switch wait {
		case waitCanceled:
			s.discardArtifact(artifact)
			return result, ctx.Err()
		case waitTimedOut:
			s.discardArtifact(artifact)
			s.logger.Info("review session timed out", "initiator", s.initiator, "approved", len(result.Approved))
			result.Outcome = OutcomeTimedOut
			s.conclude(ctx, result)
			return result, nil
		}

		switch decision {
		case ports.DecisionApprove:
			entry := domain.QueueEntry{
				Record:       rec,
				ArtifactPath: artifact,
				Approval:     domain.Approval{Identity: s.initiator, Time: time.Now().UTC()},
			}
			if err := s.deps.Queue.Enqueue([]domain.QueueEntry{entry}); err != nil {
				s.discardArtifact(artifact)
				return result, fmt.Errorf("enqueue plate %s: %w", rec.Text, err)
			}
			result.Approved = append(result.Approved, entry)
			s.logger.Info("plate approved", "initiator", s.initiator, "text", rec.Text)
			if s.deps.OnQueueChange != nil {
				s.deps.OnQueueChange(s.deps.Queue.Depth())
			}

		case ports.DecisionReject:
			s.discardArtifact(artifact)
			s.logger.Info("plate rejected", "initiator", s.initiator, "text", rec.Text)

		case ports.DecisionFinish:
			s.discardArtifact(artifact)
			s.logger.Info("review session finished", "initiator", s.initiator, "approved", len(result.Approved))
			result.Outcome = OutcomeFinished
			s.conclude(ctx, result)
			return result, nil
		}
	}
}

type waitOutcome int

const (
	waitDecided waitOutcome = iota
	waitTimedOut
	waitCanceled
)

// await blocks until the initiator decides, the per-item timer fires, or the
// context ends. Inputs from other identities are dropped without resetting
// the timer.
func (s *Session) await(ctx context.Context, decisions <-chan ports.DecisionInput) (ports.Decision, waitOutcome) {
	timer := time.NewTimer(s.deps.Timeout)
	defer timer.Stop()

	for {
		select {
		case input, ok := <-decisions:
			if !ok {
				return 0, waitTimedOut
			}
			if input.Identity != s.initiator {
				s.logger.Debug("ignoring decision from non-initiator", "identity", input.Identity)
				continue
			}
			return input.Decision, waitDecided
		case <-timer.C:
			return 0, waitTimedOut
		case <-ctx.Done():
			return 0, waitCanceled
		}
	}
}

func (s *Session) conclude(ctx context.Context, result Result) {
	summary := ports.ReviewSummary{
		Initiator: s.initiator,
		Approved:  len(result.Approved),
		TimedOut:  result.Outcome == OutcomeTimedOut,
		Exhausted: result.Outcome == OutcomeExhausted,
	}
	if err := s.deps.Presenter.ConcludeReview(ctx, summary); err != nil {
		s.logger.Warn("conclude review", "error", err)
	}
}

func (s *Session) discardArtifact(path string) {
	if err := s.deps.Renderer.Remove(path); err != nil {
		s.logger.Warn("discard artifact", "path", path, "error", err)
	}
}
