// Package feedback tracks the reviewer's per-podcast verdicts for one
// dashboard session, applying mutations optimistically before the durable
// write resolves.
package feedback

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/errors"
)

// Upserter persists a feedback record durably. Upserts are idempotent.
type Upserter interface {
	UpsertFeedback(ctx context.Context, rec *domain.FeedbackRecord) error
}

// Notifier receives the celebratory side effect when a reviewer approves a
// podcast. Fired exactly once per genuine transition into approved, never on
// idempotent re-application.
type Notifier interface {
	ProspectApproved(ctx context.Context, podcastName string) error
}

// NoopNotifier discards notifications. Used in tests and when no webhook is
// configured.
type NoopNotifier struct{}

// ProspectApproved implements Notifier as a no-op.
func (NoopNotifier) ProspectApproved(context.Context, string) error { return nil }

// Store holds the session's feedback map. Mutations apply locally first; a
// failed durable write surfaces an error but the local state is retained, so
// the dashboard keeps showing what the reviewer chose.
type Store struct {
	sessionKey string
	records    map[string]*domain.FeedbackRecord
	upserter   Upserter
	notifier   Notifier
	logger     *slog.Logger
}

// New creates a feedback store for one session.
func New(sessionKey string, upserter Upserter, notifier Notifier, logger *slog.Logger) *Store {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		sessionKey: sessionKey,
		records:    make(map[string]*domain.FeedbackRecord),
		upserter:   upserter,
		notifier:   notifier,
		logger:     logger,
	}
}

// Hydrate seeds the local map from durable records, e.g. when a dashboard is
// reopened. Existing local entries win; hydration never clobbers a verdict
// the reviewer just made.
func (s *Store) Hydrate(recs []*domain.FeedbackRecord) {
	for _, rec := range recs {
		if rec == nil || rec.PodcastID == "" {
			continue
		}
		if _, ok := s.records[rec.PodcastID]; ok {
			continue
		}
		s.records[rec.PodcastID] = rec.Clone()
	}
}

// Get returns the record for a podcast, or nil if the reviewer has not
// touched it.
func (s *Store) Get(podcastID string) *domain.FeedbackRecord {
	return s.records[podcastID].Clone()
}

// Status returns the effective verdict for a podcast.
func (s *Store) Status(podcastID string) domain.FeedbackStatus {
	if rec, ok := s.records[podcastID]; ok {
		return rec.Status
	}
	return domain.StatusNone
}

// Map returns a snapshot of the feedback map for the filter pipeline.
func (s *Store) Map() map[string]*domain.FeedbackRecord {
	out := make(map[string]*domain.FeedbackRecord, len(s.records))
	for id, rec := range s.records {
		out[id] = rec.Clone()
	}
	return out
}

// SetStatus records a verdict for a podcast. Re-applying the current status
// is a no-op: no durable write, no notification. A genuine change applies
// locally, then persists; on persistence failure the local state stays
// applied and a PersistFailed error surfaces to the caller.
func (s *Store) SetStatus(ctx context.Context, podcastID, podcastName string, status domain.FeedbackStatus) error {
	if !status.Valid() {
		return errors.Validationf("unknown feedback status %q", status)
	}

	cur := s.records[podcastID]
	if cur != nil && cur.Status == status {
		return nil
	}
	if cur == nil && status == domain.StatusNone {
		return nil
	}

	rec := &domain.FeedbackRecord{
		SessionKey: s.sessionKey,
		PodcastID:  podcastID,
		Status:     status,
		UpdatedAt:  time.Now(),
	}
	if cur != nil {
		rec.Note = cur.Note
	}

	// Optimistic: local map first, durable write second.
	s.records[podcastID] = rec

	if status == domain.StatusApproved {
		if err := s.notifier.ProspectApproved(ctx, podcastName); err != nil {
			s.logger.Warn("approval notification failed",
				"podcast_id", podcastID, "error", err)
		}
	}

	return s.persist(ctx, rec)
}

// SetNote attaches or replaces the reviewer's note for a podcast. Writing the
// same note twice is a no-op.
func (s *Store) SetNote(ctx context.Context, podcastID, note string) error {
	cur := s.records[podcastID]
	if cur != nil && cur.Note == note {
		return nil
	}
	if cur == nil && note == "" {
		return nil
	}

	rec := &domain.FeedbackRecord{
		SessionKey: s.sessionKey,
		PodcastID:  podcastID,
		Status:     domain.StatusNone,
		Note:       note,
		UpdatedAt:  time.Now(),
	}
	if cur != nil {
		rec.Status = cur.Status
	}

	s.records[podcastID] = rec
	return s.persist(ctx, rec)
}

func (s *Store) persist(ctx context.Context, rec *domain.FeedbackRecord) error {
	if err := s.upserter.UpsertFeedback(ctx, rec.Clone()); err != nil {
		// Local and durable state have diverged; surface it rather than
		// silently swallowing. The local verdict is deliberately kept.
		s.logger.Warn("durable feedback write failed, local state retained",
			"session_key", s.sessionKey,
			"podcast_id", rec.PodcastID,
			"status", rec.Status,
			"error", err)
		return errors.Wrapf(err, errors.CodePersistFailed, "persist feedback for %s", rec.PodcastID)
	}
	return nil
}
