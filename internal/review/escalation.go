package review

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"PlateBot/internal/ports"
)

// SessionStarter hands a claimant into a new review session.
type SessionStarter func(ctx context.Context, identity string)

// Monitor watches queue depth. When the queue empties it broadcasts one
// claimable invitation; the first identity to claim within the window is
// handed into a new session. An unclaimed window simply closes.
type Monitor struct {
	broadcaster ports.InvitationBroadcaster
	start       SessionStarter
	window      time.Duration
	logger      *slog.Logger

	mu     sync.Mutex
	active bool
}

// NewMonitor wires the escalation loop.
func NewMonitor(broadcaster ports.InvitationBroadcaster, start SessionStarter, window time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		broadcaster: broadcaster,
		start:       start,
		window:      window,
		logger:      logger,
	}
}

// OnQueueDepthChanged reacts to a queue mutation. Anything other than zero
// depth is ignored, as is a zero while an invitation is already in flight.
func (m *Monitor) OnQueueDepthChanged(ctx context.Context, depth int) {
	if depth != 0 {
		return
	}

	m.mu.Lock()
	if m.active {
		m.mu.Unlock()
		return
	}
	m.active = true
	m.mu.Unlock()

	go m.run(ctx)
}

func (m *Monitor) run(ctx context.Context) {
	defer func() {
		m.mu.Lock()
		m.active = false
		m.mu.Unlock()
	}()

	invitation, err := m.broadcaster.BroadcastReviewInvitation(ctx)
	if err != nil {
		m.logger.Error("broadcast review invitation", "error", err)
		return
	}

	timer := time.NewTimer(m.window)
	defer timer.Stop()

	select {
	case identity, ok := <-invitation.Claims():
		if !ok {
			m.logger.Info("review invitation withdrawn")
			return
		}
		if err := invitation.MarkClaimed(ctx, identity); err != nil {
			m.logger.Warn("mark invitation claimed", "identity", identity, "error", err)
		}
		m.logger.Info("review invitation claimed", "identity", identity)
		m.start(ctx, identity)
	case <-timer.C:
		m.logger.Info("review invitation expired unclaimed")
		invitation.Close()
	case <-ctx.Done():
		invitation.Close()
	}
}
