package domain

import "time"

// FeedbackStatus is the reviewer's verdict on a podcast.
type FeedbackStatus string

// Feedback statuses. A podcast with no record is implicitly StatusNone.
const (
	StatusNone     FeedbackStatus = "none"
	StatusApproved FeedbackStatus = "approved"
	StatusRejected FeedbackStatus = "rejected"
)

// Valid reports whether the status is one of the known values.
func (s FeedbackStatus) Valid() bool {
	switch s {
	case StatusNone, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// FeedbackRecord is one reviewer's verdict and note for one podcast within a
// dashboard session. Upserts are idempotent: re-applying the same status is a
// no-op change.
type FeedbackRecord struct {
	SessionKey string         `json:"session_key"`
	PodcastID  string         `json:"podcast_id"`
	Status     FeedbackStatus `json:"status"`
	Note       string         `json:"note,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Clone returns a copy of the record safe to hand to collaborators.
func (r *FeedbackRecord) Clone() *FeedbackRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
