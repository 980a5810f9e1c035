package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"PlateBot/internal/domain"
	"PlateBot/internal/ports"
)

// Dispatcher fans one queued entry out to every configured publishing
// target. Targets are attempted in configuration order and fail
// independently; one broken service never blocks the rest.
type Dispatcher struct {
	targets  []ports.PublishTarget
	history  ports.HistoryStore
	renderer ports.Renderer
	logger   *slog.Logger
}

// NewDispatcher wires the fan-out over a fixed, ordered target list.
func NewDispatcher(targets []ports.PublishTarget, history ports.HistoryStore, renderer ports.Renderer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		targets:  targets,
		history:  history,
		renderer: renderer,
		logger:   logger,
	}
}

// Publish attempts every target once, collecting one result per target.
// After each attempt the progress callback receives the cumulative results,
// with finished set on the last. The entry is consumed no matter how many
// targets failed: its artifact is removed and it joins the published
// history. There is no automatic retry of a dequeued entry.
func (d *Dispatcher) Publish(ctx context.Context, entry domain.QueueEntry, progress ports.ProgressFunc) ([]domain.TargetResult, error) {
	results := make([]domain.TargetResult, 0, len(d.targets))

	for i, target := range d.targets {
		result := domain.TargetResult{Target: target.Name()}

		locator, err := target.Publish(ctx, entry)
		if err != nil {
			result.Err = fmt.Sprintf("service had an error: %v", err)
			d.logger.Warn("publish attempt failed", "target", target.Name(), "text", entry.Record.Text, "error", err)
		} else {
			result.Locator = locator
			d.logger.Info("published", "target", target.Name(), "text", entry.Record.Text, "locator", locator)
		}

		results = append(results, result)
		if progress != nil {
			progress(append([]domain.TargetResult(nil), results...), i == len(d.targets)-1)
		}
	}

	if len(d.targets) == 0 && progress != nil {
		progress(nil, true)
	}

	if err := d.renderer.Remove(entry.ArtifactPath); err != nil {
		d.logger.Warn("remove published artifact", "path", entry.ArtifactPath, "error", err)
	}

	if err := d.history.AppendPosted(entry); err != nil {
		return results, fmt.Errorf("append published history: %w", err)
	}

	return results, nil
}

// RefreshProfiles pushes the completion bio to every target, best effort.
// A failed profile update is logged and does not abort the others.
func (d *Dispatcher) RefreshProfiles(ctx context.Context, completion float64) {
	bio := domain.Bio(completion)
	for _, target := range d.targets {
		if err := target.UpdateProfile(ctx, bio); err != nil {
			d.logger.Warn("update profile failed", "target", target.Name(), "error", err)
		}
	}
}

// Authenticate logs every target in. A failed login is reported but does not
// prevent the remaining targets from authenticating.
func (d *Dispatcher) Authenticate(ctx context.Context) {
	for _, target := range d.targets {
		if err := target.Authenticate(ctx); err != nil {
			d.logger.Error("authenticate target", "target", target.Name(), "error", err)
			continue
		}
		d.logger.Info("authenticated target", "target", target.Name())
	}
}
