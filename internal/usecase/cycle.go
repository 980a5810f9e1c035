package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"PlateBot/internal/domain"
	"PlateBot/internal/ports"
	"PlateBot/internal/queue"
	"PlateBot/internal/review"
)

// PublishCycle is the publish-one-entry operation behind both the hourly
// schedule and the manual post command: dequeue, fan out, announce the new
// depth, and hand a zero depth to the escalation monitor.
type PublishCycle struct {
	queue      *queue.Queue
	dispatcher *Dispatcher
	announcer  ports.Announcer
	monitor    *review.Monitor
	logger     *slog.Logger
}

// NewPublishCycle wires the cycle.
func NewPublishCycle(q *queue.Queue, d *Dispatcher, announcer ports.Announcer, monitor *review.Monitor, logger *slog.Logger) *PublishCycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishCycle{
		queue:      q,
		dispatcher: d,
		announcer:  announcer,
		monitor:    monitor,
		logger:     logger,
	}
}

// RunOnce publishes the next queued entry. An empty queue is reported as
// queue.ErrEmptyQueue (nothing to publish now) and still wakes the
// escalation monitor so new reviews get solicited.
func (c *PublishCycle) RunOnce(ctx context.Context) error {
	entry, err := c.queue.DequeueOne()
	if errors.Is(err, queue.ErrEmptyQueue) {
		c.logger.Info("nothing to publish, queue is empty")
		if c.monitor != nil {
			c.monitor.OnQueueDepthChanged(ctx, 0)
		}
		return err
	}
	if err != nil {
		return fmt.Errorf("dequeue: %w", err)
	}

	if err := c.dispatch(ctx, entry); err != nil {
		return err
	}

	depth := c.queue.Depth()
	if c.announcer != nil {
		if err := c.announcer.AnnounceQueueDepth(ctx, depth); err != nil {
			c.logger.Warn("announce queue depth", "error", err)
		}
	}
	if c.monitor != nil {
		c.monitor.OnQueueDepthChanged(ctx, depth)
	}

	return nil
}

// PublishCustom publishes a community-submitted entry through the same
// fan-out and announcements as queued entries. The queue is never touched,
// so neither depth nor escalation change.
func (c *PublishCycle) PublishCustom(ctx context.Context, entry domain.QueueEntry) error {
	return c.dispatch(ctx, entry)
}

func (c *PublishCycle) dispatch(ctx context.Context, entry domain.QueueEntry) error {
	var progress ports.ProgressFunc
	if c.announcer != nil {
		p, err := c.announcer.BeginPublish(ctx, entry)
		if err != nil {
			c.logger.Warn("begin publish announcement", "error", err)
		} else {
			progress = p
		}
	}

	results, err := c.dispatcher.Publish(ctx, entry, progress)
	if err != nil {
		return fmt.Errorf("publish %s: %w", entry.Record.Text, err)
	}

	succeeded := 0
	for _, r := range results {
		if r.OK() {
			succeeded++
		}
	}
	c.logger.Info("publish cycle complete", "text", entry.Record.Text, "targets", len(results), "succeeded", succeeded)

	return nil
}
