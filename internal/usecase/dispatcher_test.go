package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"PlateBot/internal/domain"
	"PlateBot/internal/ports"
)

type fakeTarget struct {
	name        string
	publishErr  error
	authErr     error
	profileErr  error
	published   []string
	profiles    []string
	authedCount int
}

func (t *fakeTarget) Name() string { return t.name }

func (t *fakeTarget) Authenticate(context.Context) error {
	t.authedCount++
	return t.authErr
}

func (t *fakeTarget) Publish(_ context.Context, entry domain.QueueEntry) (string, error) {
	if t.publishErr != nil {
		return "", t.publishErr
	}
	t.published = append(t.published, entry.Record.Text)
	return "https://example.org/" + t.name + "/1", nil
}

func (t *fakeTarget) UpdateProfile(_ context.Context, bio string) error {
	if t.profileErr != nil {
		return t.profileErr
	}
	t.profiles = append(t.profiles, bio)
	return nil
}

type historyStub struct {
	appended  []domain.QueueEntry
	appendErr error
}

func (h *historyStub) AppendPosted(entry domain.QueueEntry) error {
	if h.appendErr != nil {
		return h.appendErr
	}
	h.appended = append(h.appended, entry)
	return nil
}

type rendererStub struct {
	removed []string
}

func (r *rendererStub) Render(_ context.Context, text string) (string, error) {
	return "/tmp/" + text + ".svg", nil
}

func (r *rendererStub) Remove(path string) error {
	r.removed = append(r.removed, path)
	return nil
}

type progressCall struct {
	results  []domain.TargetResult
	finished bool
}

func sampleEntry() domain.QueueEntry {
	return domain.QueueEntry{
		Record:       domain.Record{ID: "id-1", Text: "AAA111"},
		ArtifactPath: "/tmp/AAA111.svg",
		Approval:     domain.Approval{Identity: "mod"},
	}
}

func TestPublishToleratesFailingTarget(t *testing.T) {
	ok1 := &fakeTarget{name: "Telegram"}
	broken := &fakeTarget{name: "Mastodon", publishErr: errors.New("boom")}
	ok2 := &fakeTarget{name: "Discord"}
	history := &historyStub{}
	renderer := &rendererStub{}

	d := NewDispatcher([]ports.PublishTarget{ok1, broken, ok2}, history, renderer, nil)

	var calls []progressCall
	results, err := d.Publish(context.Background(), sampleEntry(), func(results []domain.TargetResult, finished bool) {
		calls = append(calls, progressCall{results: results, finished: finished})
	})
	require.NoError(t, err)

	require.Len(t, results, 3)
	require.True(t, results[0].OK())
	require.False(t, results[1].OK())
	require.Contains(t, results[1].Err, "service had an error")
	require.True(t, results[2].OK())

	require.Len(t, calls, 3)
	require.Len(t, calls[0].results, 1)
	require.False(t, calls[0].finished)
	require.Len(t, calls[1].results, 2)
	require.False(t, calls[1].finished)
	require.Len(t, calls[2].results, 3)
	require.True(t, calls[2].finished)

	require.Equal(t, []string{"/tmp/AAA111.svg"}, renderer.removed)
	require.Len(t, history.appended, 1)
}

func TestPublishWithNoTargetsStillFinishes(t *testing.T) {
	history := &historyStub{}
	renderer := &rendererStub{}
	d := NewDispatcher(nil, history, renderer, nil)

	var calls []progressCall
	results, err := d.Publish(context.Background(), sampleEntry(), func(results []domain.TargetResult, finished bool) {
		calls = append(calls, progressCall{results: results, finished: finished})
	})
	require.NoError(t, err)
	require.Empty(t, results)
	require.Len(t, calls, 1)
	require.True(t, calls[0].finished)
	require.Len(t, history.appended, 1)
}

func TestPublishSurfacesHistoryFailure(t *testing.T) {
	target := &fakeTarget{name: "Telegram"}
	history := &historyStub{appendErr: errors.New("disk full")}
	d := NewDispatcher([]ports.PublishTarget{target}, history, &rendererStub{}, nil)

	results, err := d.Publish(context.Background(), sampleEntry(), nil)
	require.Error(t, err)
	require.Len(t, results, 1)
}

func TestRefreshProfilesBestEffort(t *testing.T) {
	broken := &fakeTarget{name: "Telegram", profileErr: errors.New("boom")}
	ok := &fakeTarget{name: "Mastodon"}
	d := NewDispatcher([]ports.PublishTarget{broken, ok}, &historyStub{}, &rendererStub{}, nil)

	d.RefreshProfiles(context.Background(), 0.25)
	require.Len(t, ok.profiles, 1)
	require.Contains(t, ok.profiles[0], "25.00% complete")
}

func TestAuthenticateContinuesPastFailure(t *testing.T) {
	broken := &fakeTarget{name: "Telegram", authErr: errors.New("bad token")}
	ok := &fakeTarget{name: "Mastodon"}
	d := NewDispatcher([]ports.PublishTarget{broken, ok}, &historyStub{}, &rendererStub{}, nil)

	d.Authenticate(context.Background())
	require.Equal(t, 1, broken.authedCount)
	require.Equal(t, 1, ok.authedCount)
}
