package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"PlateBot/internal/domain"
	"PlateBot/internal/ports"
	"PlateBot/internal/queue"
	"PlateBot/internal/review"
)

type queueStoreStub struct {
	entries []domain.QueueEntry
}

func (s *queueStoreStub) LoadQueue() ([]domain.QueueEntry, error) {
	return append([]domain.QueueEntry(nil), s.entries...), nil
}

func (s *queueStoreStub) SaveQueue(entries []domain.QueueEntry) error {
	s.entries = append([]domain.QueueEntry(nil), entries...)
	return nil
}

type fakeAnnouncer struct {
	began    []domain.QueueEntry
	progress []progressCall
	depths   []int
}

func (a *fakeAnnouncer) BeginPublish(_ context.Context, entry domain.QueueEntry) (ports.ProgressFunc, error) {
	a.began = append(a.began, entry)
	return func(results []domain.TargetResult, finished bool) {
		a.progress = append(a.progress, progressCall{results: results, finished: finished})
	}, nil
}

func (a *fakeAnnouncer) AnnounceQueueDepth(_ context.Context, depth int) error {
	a.depths = append(a.depths, depth)
	return nil
}

type stubInvitation struct{}

func (stubInvitation) Claims() <-chan string                     { return nil }
func (stubInvitation) MarkClaimed(context.Context, string) error { return nil }
func (stubInvitation) Close()                                    {}

type countingBroadcaster struct {
	broadcasts chan struct{}
}

func (b *countingBroadcaster) BroadcastReviewInvitation(context.Context) (ports.Invitation, error) {
	b.broadcasts <- struct{}{}
	return stubInvitation{}, nil
}

func TestRunOncePublishesAndAnnounces(t *testing.T) {
	store := &queueStoreStub{entries: []domain.QueueEntry{sampleEntry(), sampleEntry()}}
	q, err := queue.New(store, nil)
	require.NoError(t, err)

	target := &fakeTarget{name: "Telegram"}
	d := NewDispatcher([]ports.PublishTarget{target}, &historyStub{}, &rendererStub{}, nil)
	announcer := &fakeAnnouncer{}

	cycle := NewPublishCycle(q, d, announcer, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, cycle.RunOnce(ctx))
	require.Equal(t, 1, q.Depth())
	require.Len(t, announcer.began, 1)
	require.Len(t, announcer.progress, 1)
	require.True(t, announcer.progress[0].finished)
	require.Equal(t, []int{1}, announcer.depths)
	require.Len(t, target.published, 1)
}

func TestRunOnceEmptyQueueWakesEscalation(t *testing.T) {
	q, err := queue.New(&queueStoreStub{}, nil)
	require.NoError(t, err)

	d := NewDispatcher(nil, &historyStub{}, &rendererStub{}, nil)
	broadcaster := &countingBroadcaster{broadcasts: make(chan struct{}, 1)}
	monitor := review.NewMonitor(broadcaster, func(context.Context, string) {}, time.Hour, nil)

	cycle := NewPublishCycle(q, d, &fakeAnnouncer{}, monitor, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = cycle.RunOnce(ctx)
	require.ErrorIs(t, err, queue.ErrEmptyQueue)

	select {
	case <-broadcaster.broadcasts:
	case <-time.After(time.Second):
		t.Fatal("escalation monitor never broadcast an invitation")
	}
}

func TestPublishCustomSkipsQueue(t *testing.T) {
	store := &queueStoreStub{entries: []domain.QueueEntry{sampleEntry()}}
	q, err := queue.New(store, nil)
	require.NoError(t, err)

	target := &fakeTarget{name: "Telegram"}
	history := &historyStub{}
	d := NewDispatcher([]ports.PublishTarget{target}, history, &rendererStub{}, nil)
	broadcaster := &countingBroadcaster{broadcasts: make(chan struct{}, 1)}
	monitor := review.NewMonitor(broadcaster, func(context.Context, string) {}, time.Hour, nil)
	announcer := &fakeAnnouncer{}

	cycle := NewPublishCycle(q, d, announcer, monitor, nil)

	entry := domain.QueueEntry{
		Record:       domain.Record{ID: "custom-1", Text: "COOLPL8", Verdict: domain.VerdictApproved},
		ArtifactPath: "/tmp/COOLPL8.svg",
		Community:    true,
		Submitter:    "platefan",
	}
	require.NoError(t, cycle.PublishCustom(context.Background(), entry))

	require.Equal(t, []string{"COOLPL8"}, target.published)
	require.Len(t, announcer.began, 1)
	require.Len(t, history.appended, 1)

	// The queue and its observers stay untouched.
	require.Equal(t, 1, q.Depth())
	require.Empty(t, announcer.depths)
	require.Empty(t, broadcaster.broadcasts)
}

func TestRunOnceDrainingQueueTriggersEscalation(t *testing.T) {
	store := &queueStoreStub{entries: []domain.QueueEntry{sampleEntry()}}
	q, err := queue.New(store, nil)
	require.NoError(t, err)

	d := NewDispatcher([]ports.PublishTarget{&fakeTarget{name: "Telegram"}}, &historyStub{}, &rendererStub{}, nil)
	broadcaster := &countingBroadcaster{broadcasts: make(chan struct{}, 1)}
	monitor := review.NewMonitor(broadcaster, func(context.Context, string) {}, time.Hour, nil)
	announcer := &fakeAnnouncer{}

	cycle := NewPublishCycle(q, d, announcer, monitor, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, cycle.RunOnce(ctx))
	require.Equal(t, []int{0}, announcer.depths)

	select {
	case <-broadcaster.broadcasts:
	case <-time.After(time.Second):
		t.Fatal("escalation monitor never broadcast an invitation")
	}
}
