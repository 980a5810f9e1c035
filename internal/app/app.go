package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"PlateBot/internal/config"
	"PlateBot/internal/domain"
	"PlateBot/internal/infrastructure/discord"
	"PlateBot/internal/infrastructure/mastodon"
	"PlateBot/internal/infrastructure/render"
	"PlateBot/internal/infrastructure/scheduler"
	"PlateBot/internal/infrastructure/storage"
	"PlateBot/internal/infrastructure/telegram"
	"PlateBot/internal/ingest"
	"PlateBot/internal/logging"
	"PlateBot/internal/pool"
	"PlateBot/internal/ports"
	"PlateBot/internal/queue"
	"PlateBot/internal/review"
	"PlateBot/internal/usecase"
)

// Application wires configs to the core components and owns the lifecycle.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	logMirror  *logging.Mirror
	pool       *pool.Pool
	queue      *queue.Queue
	renderer   ports.Renderer
	dispatcher *usecase.Dispatcher
	cycle      *usecase.PublishCycle
	jobs       *usecase.Jobs
	gateway    *discord.Gateway
}

var _ discord.Core = (*Application)(nil)

// New normalizes the corpus if needed and builds a runnable application.
// logMirror, when given, is bound to the Discord log channel once the
// gateway connects.
func New(cfg config.Config, baseLogger *slog.Logger, logMirror *logging.Mirror) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.File)
	}

	files := storage.NewFiles(cfg.Data.Dir)
	if err := files.EnsureLayout(); err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	corpus, err := ingest.LoadWorkbooks(cfg.Data.WorkbooksDir, baseLogger.With("component", "ingest"))
	if err != nil {
		return nil, fmt.Errorf("load workbooks: %w", err)
	}
	if !files.HasRecords() {
		if err := files.SaveRecords(corpus.Records); err != nil {
			return nil, fmt.Errorf("seed records: %w", err)
		}
		baseLogger.Info("seeded record pool", "records", len(corpus.Records))
	}

	recordPool, err := pool.New(files, corpus.SourceRows, baseLogger.With("component", "pool"))
	if err != nil {
		return nil, err
	}

	publishQueue, err := queue.New(files, baseLogger.With("component", "queue"))
	if err != nil {
		return nil, err
	}

	renderer := render.NewSVG(cfg.Data.TmpDir)

	var targets []ports.PublishTarget
	if cfg.Telegram.BotToken != "" {
		targets = append(targets, telegram.NewTarget(cfg.Telegram))
	}
	if cfg.Mastodon.AccessToken != "" {
		targets = append(targets, mastodon.NewTarget(cfg.Mastodon))
	}

	dispatcher := usecase.NewDispatcher(targets, files, renderer, baseLogger.With("component", "dispatcher"))

	gateway, err := discord.New(cfg.Discord, baseLogger.With("component", "discord"))
	if err != nil {
		return nil, err
	}

	a := &Application{
		cfg:        cfg,
		logger:     baseLogger,
		logMirror:  logMirror,
		pool:       recordPool,
		queue:      publishQueue,
		renderer:   renderer,
		dispatcher: dispatcher,
		gateway:    gateway,
	}

	starter := review.SessionStarter(func(ctx context.Context, identity string) {
		if err := a.StartReview(ctx, identity); err != nil {
			baseLogger.Error("claimed review session", "initiator", identity, "error", err)
		}
	})
	monitor := review.NewMonitor(gateway, starter, cfg.Review.ClaimWindowDuration(), baseLogger.With("component", "escalation"))

	a.cycle = usecase.NewPublishCycle(publishQueue, dispatcher, gateway, monitor, baseLogger.With("component", "cycle"))
	a.jobs = usecase.NewJobs(
		scheduler.NewInterval(cfg.Scheduler.PublishIntervalDuration(), false),
		scheduler.NewInterval(cfg.Scheduler.ProfileIntervalDuration(), false),
		a.cycle,
		dispatcher,
		recordPool.Completion,
	)

	gateway.Bind(a)

	return a, nil
}

// Run connects the gateway, starts the recurring jobs, and blocks until the
// context ends.
func (a *Application) Run(ctx context.Context) error {
	if err := a.gateway.Start(ctx); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}
	defer func() {
		if err := a.gateway.Stop(); err != nil {
			a.logger.Warn("stop gateway", "error", err)
		}
	}()

	if a.logMirror != nil {
		a.logMirror.Bind(a.gateway.SendLog)
	}

	a.dispatcher.Authenticate(ctx)
	a.dispatcher.RefreshProfiles(ctx, a.pool.Completion())
	a.gateway.UpdateQueuePresence(a.queue.Depth())

	if err := a.jobs.Start(ctx); err != nil {
		return fmt.Errorf("start jobs: %w", err)
	}

	<-ctx.Done()

	if err := a.jobs.Stop(context.Background()); err != nil {
		a.logger.Warn("stop jobs", "error", err)
	}

	return nil
}

// StartReview runs a review session for the identity, blocking until it ends.
func (a *Application) StartReview(ctx context.Context, identity string) error {
	session := review.NewSession(identity, review.SessionDeps{
		Pool:      a.pool,
		Queue:     a.queue,
		Renderer:  a.renderer,
		Presenter: a.gateway.PresenterFor(identity),
		Timeout:   a.cfg.Review.DecisionTimeoutDuration(),
		OnQueueChange: func(depth int) {
			a.gateway.UpdateQueuePresence(depth)
		},
		Logger: a.logger.With("component", "review"),
	})

	_, err := session.Run(ctx)
	return err
}

// QueueTexts lists the queued plate texts in publish order.
func (a *Application) QueueTexts() []string {
	return a.queue.Texts()
}

// PublishNext dequeues and publishes one entry.
func (a *Application) PublishNext(ctx context.Context) error {
	return a.cycle.RunOnce(ctx)
}

// PublishCustom renders a community submission and publishes it through the
// regular fan-out, bypassing the queue.
func (a *Application) PublishCustom(ctx context.Context, sub domain.Submission) error {
	artifact, err := a.renderer.Render(ctx, sub.Text)
	if err != nil {
		return fmt.Errorf("render custom plate %s: %w", sub.Text, err)
	}

	verdict := domain.VerdictDenied
	if sub.Approved {
		verdict = domain.VerdictApproved
	}

	entry := domain.QueueEntry{
		Record: domain.Record{
			ID:              uuid.NewString(),
			Text:            sub.Text,
			CustomerComment: sub.CustomerComment,
			DMVComment:      sub.DMVComment,
			Verdict:         verdict,
		},
		ArtifactPath: artifact,
		Community:    true,
		Submitter:    sub.Submitter,
		Draft:        sub.Draft,
	}

	return a.cycle.PublishCustom(ctx, entry)
}

// RefreshProfiles pushes the completion bio to every target.
func (a *Application) RefreshProfiles(ctx context.Context) error {
	a.dispatcher.RefreshProfiles(ctx, a.pool.Completion())
	return nil
}

// RenderPlate draws a one-off plate artifact.
func (a *Application) RenderPlate(ctx context.Context, text string) (string, error) {
	return a.renderer.Render(ctx, text)
}
