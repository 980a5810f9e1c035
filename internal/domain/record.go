package domain

import (
	"bytes"
	"fmt"
	"time"
)

// Verdict is the DMV's original ruling on a plate application, carried
// through from the source corpus unmodified.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictApproved
	VerdictDenied
)

// String renders the verdict the way it appears in published posts.
func (v Verdict) String() string {
	switch v {
	case VerdictApproved:
		return "ACCEPTED"
	case VerdictDenied:
		return "DENIED"
	default:
		return "(NOT ON RECORD)"
	}
}

// MarshalJSON keeps the durable representation tri-state: true, false or null.
func (v Verdict) MarshalJSON() ([]byte, error) {
	switch v {
	case VerdictApproved:
		return []byte("true"), nil
	case VerdictDenied:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts true, false or null.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*v = VerdictApproved
	case "false":
		*v = VerdictDenied
	case "null":
		*v = VerdictUnknown
	default:
		return fmt.Errorf("verdict: cannot parse %q", string(data))
	}
	return nil
}

// Record is one normalized plate application. Immutable once ingested;
// the ID is generated at ingest time and is the only durable key.
type Record struct {
	ID              string  `json:"id"`
	Text            string  `json:"text"`
	CustomerComment string  `json:"customerComment"`
	DMVComment      string  `json:"dmvComment"`
	Verdict         Verdict `json:"verdict"`
}

// Candidate is a record promoted out of the pool for review, with its
// rendered artifact attached.
type Candidate struct {
	Record       Record
	ArtifactPath string
}

// Approval captures who approved a candidate and when (UTC).
type Approval struct {
	Identity string    `json:"identity"`
	Time     time.Time `json:"time"`
}

// QueueEntry is an approved candidate awaiting publication. Owned by the
// queue until dequeued; the dispatcher destroys it after the fan-out.
// Community entries bypass the queue entirely and carry submitter credit
// instead of an approval.
type QueueEntry struct {
	Record       Record   `json:"record"`
	ArtifactPath string   `json:"artifactPath"`
	Approval     Approval `json:"approval"`
	Community    bool     `json:"community,omitempty"`
	Submitter    string   `json:"submitter,omitempty"`
	Draft        bool     `json:"draft,omitempty"`
}

// Submission is a community-contributed plate posted outside the review
// queue. Draft submissions are published with restricted visibility.
type Submission struct {
	Text            string
	CustomerComment string
	DMVComment      string
	Approved        bool
	Submitter       string
	Draft           bool
}

// TargetResult is the outcome of one publish attempt against one target.
type TargetResult struct {
	Target  string
	Locator string
	Err     string
}

// OK reports whether the attempt produced a locator.
func (r TargetResult) OK() bool {
	return r.Err == ""
}
