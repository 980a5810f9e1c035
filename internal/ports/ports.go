package ports

import (
	"context"
	"time"

	"PlateBot/internal/domain"
)

// Decision is a reviewer's ruling on the candidate currently presented.
type Decision int

const (
	DecisionApprove Decision = iota
	DecisionReject
	DecisionFinish
)

// DecisionInput carries a decision together with the identity that made it,
// so sessions can ignore anyone but their initiator.
type DecisionInput struct {
	Identity string
	Decision Decision
}

// ReviewSummary describes how a session ended.
type ReviewSummary struct {
	Initiator string
	Approved  int
	TimedOut  bool
	Exhausted bool
}

// Presenter shows one candidate to a reviewer and streams back decisions.
type Presenter interface {
	// PresentCandidate displays the candidate and returns a channel of
	// decision inputs. The channel may carry inputs from any identity;
	// filtering is the caller's job.
	PresentCandidate(ctx context.Context, cand domain.Candidate, preview string) (<-chan DecisionInput, error)

	// DismissCandidate withdraws the current presentation, dropping its
	// decision controls without concluding the session. A no-op when
	// nothing is presented.
	DismissCandidate(ctx context.Context)

	// ConcludeReview tells the reviewer the session is over.
	ConcludeReview(ctx context.Context, summary ReviewSummary) error
}

// Invitation is one open claimable call for reviewers.
type Invitation interface {
	// Claims streams the identities attempting to claim the invitation.
	Claims() <-chan string

	// MarkClaimed closes the invitation to further claims and records who won.
	MarkClaimed(ctx context.Context, identity string) error

	// Close releases the invitation without a claimant.
	Close()
}

// InvitationBroadcaster publishes a claimable review invitation.
type InvitationBroadcaster interface {
	BroadcastReviewInvitation(ctx context.Context) (Invitation, error)
}

// ProgressFunc receives the cumulative per-target results after each publish
// attempt; finished is true once every configured target has been tried.
type ProgressFunc func(results []domain.TargetResult, finished bool)

// Announcer surfaces dispatch activity to the humans watching the bot.
type Announcer interface {
	// BeginPublish announces that an entry is being posted and returns the
	// progress callback that updates the announcement in place.
	BeginPublish(ctx context.Context, entry domain.QueueEntry) (ProgressFunc, error)

	// AnnounceQueueDepth reports how many entries remain after a mutation.
	AnnounceQueueDepth(ctx context.Context, depth int) error
}

// PublishTarget is one outbound publishing service. Targets fail
// independently; a publish error on one never concerns the others.
type PublishTarget interface {
	Name() string
	Authenticate(ctx context.Context) error
	Publish(ctx context.Context, entry domain.QueueEntry) (string, error)
	UpdateProfile(ctx context.Context, bio string) error
}

// Renderer produces and disposes of plate artifacts.
type Renderer interface {
	Render(ctx context.Context, text string) (string, error)
	Remove(path string) error
}

// RecordStore persists the unreviewed record pool.
type RecordStore interface {
	LoadRecords() ([]domain.Record, error)
	SaveRecords(records []domain.Record) error
}

// QueueStore persists the approved queue.
type QueueStore interface {
	LoadQueue() ([]domain.QueueEntry, error)
	SaveQueue(entries []domain.QueueEntry) error
}

// HistoryStore appends entries to the durable published history.
type HistoryStore interface {
	AppendPosted(entry domain.QueueEntry) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
