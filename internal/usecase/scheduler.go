package usecase

import (
	"context"
	"errors"
	"time"

	"PlateBot/internal/ports"
	"PlateBot/internal/queue"
)

// Jobs wires the interval drivers with the recurring use cases: the publish
// cycle and the profile refresh.
type Jobs struct {
	publishDriver ports.Scheduler
	profileDriver ports.Scheduler
	cycle         *PublishCycle
	dispatcher    *Dispatcher
	completion    func() float64
}

// NewJobs returns a helper to start/stop the recurring jobs.
func NewJobs(publishDriver, profileDriver ports.Scheduler, cycle *PublishCycle, dispatcher *Dispatcher, completion func() float64) *Jobs {
	return &Jobs{
		publishDriver: publishDriver,
		profileDriver: profileDriver,
		cycle:         cycle,
		dispatcher:    dispatcher,
		completion:    completion,
	}
}

// Start registers both jobs with their drivers.
func (j *Jobs) Start(ctx context.Context) error {
	if j.publishDriver != nil && j.cycle != nil {
		job := func(time.Time) {
			if err := j.cycle.RunOnce(ctx); err != nil && !errors.Is(err, queue.ErrEmptyQueue) {
				j.cycle.logger.Error("scheduled publish cycle", "error", err)
			}
		}
		if err := j.publishDriver.Start(ctx, job); err != nil {
			return err
		}
	}

	if j.profileDriver != nil && j.dispatcher != nil && j.completion != nil {
		job := func(time.Time) {
			j.dispatcher.RefreshProfiles(ctx, j.completion())
		}
		if err := j.profileDriver.Start(ctx, job); err != nil {
			return err
		}
	}

	return nil
}

// Stop gracefully tears down both drivers.
func (j *Jobs) Stop(ctx context.Context) error {
	if j.publishDriver != nil {
		if err := j.publishDriver.Stop(ctx); err != nil {
			return err
		}
	}
	if j.profileDriver != nil {
		return j.profileDriver.Stop(ctx)
	}
	return nil
}
