package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
)

// UpsertFeedback writes a feedback record, replacing any existing one for the
// same (session, podcast) pair. Implements feedback.Upserter.
func (s *Store) UpsertFeedback(_ context.Context, rec *domain.FeedbackRecord) error {
	if rec == nil || rec.SessionKey == "" || rec.PodcastID == "" {
		return fmt.Errorf("feedback record missing session key or podcast id")
	}

	key := feedbackKey(rec.SessionKey, rec.PodcastID)
	if err := s.set(key, rec); err != nil {
		return fmt.Errorf("upsert feedback: %w", err)
	}

	s.logger.Debug("feedback persisted",
		"session_key", rec.SessionKey,
		"podcast_id", rec.PodcastID,
		"status", rec.Status)
	return nil
}

// GetFeedback returns the record for one podcast in one session.
func (s *Store) GetFeedback(_ context.Context, sessionKey, podcastID string) (*domain.FeedbackRecord, error) {
	var rec domain.FeedbackRecord
	err := s.get(feedbackKey(sessionKey, podcastID), &rec)
	if isNotFound(err) {
		return nil, ErrFeedbackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return &rec, nil
}

// ListFeedback returns every record stored for a session, used to re-hydrate
// the in-memory feedback map when a dashboard is reopened.
func (s *Store) ListFeedback(_ context.Context, sessionKey string) ([]*domain.FeedbackRecord, error) {
	var recs []*domain.FeedbackRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = feedbackPrefix(sessionKey)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec domain.FeedbackRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				recs = append(recs, &rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return recs, nil
}
