package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestUpsertAndGetFeedback(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rec := &domain.FeedbackRecord{
		SessionKey: "sess-1",
		PodcastID:  "pod-1",
		Status:     domain.StatusApproved,
		Note:       "good fit",
		UpdatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.UpsertFeedback(ctx, rec))

	got, err := s.GetFeedback(ctx, "sess-1", "pod-1")
	require.NoError(t, err)
	assert.Equal(t, rec.Status, got.Status)
	assert.Equal(t, rec.Note, got.Note)
	assert.True(t, rec.UpdatedAt.Equal(got.UpdatedAt))
}

func TestUpsertFeedbackReplaces(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertFeedback(ctx, &domain.FeedbackRecord{
		SessionKey: "sess-1", PodcastID: "pod-1", Status: domain.StatusApproved,
	}))
	require.NoError(t, s.UpsertFeedback(ctx, &domain.FeedbackRecord{
		SessionKey: "sess-1", PodcastID: "pod-1", Status: domain.StatusRejected,
	}))

	got, err := s.GetFeedback(ctx, "sess-1", "pod-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)
}

func TestUpsertFeedbackRejectsIncompleteRecords(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.UpsertFeedback(ctx, nil))
	assert.Error(t, s.UpsertFeedback(ctx, &domain.FeedbackRecord{PodcastID: "pod-1"}))
	assert.Error(t, s.UpsertFeedback(ctx, &domain.FeedbackRecord{SessionKey: "sess-1"}))
}

func TestGetFeedbackNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetFeedback(context.Background(), "sess-1", "missing")
	assert.ErrorIs(t, err, ErrFeedbackNotFound)
}

func TestListFeedbackScopedToSession(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertFeedback(ctx, &domain.FeedbackRecord{
		SessionKey: "sess-1", PodcastID: "pod-1", Status: domain.StatusApproved,
	}))
	require.NoError(t, s.UpsertFeedback(ctx, &domain.FeedbackRecord{
		SessionKey: "sess-1", PodcastID: "pod-2", Status: domain.StatusRejected,
	}))
	require.NoError(t, s.UpsertFeedback(ctx, &domain.FeedbackRecord{
		SessionKey: "sess-2", PodcastID: "pod-9", Status: domain.StatusApproved,
	}))

	recs, err := s.ListFeedback(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, "sess-1", rec.SessionKey)
	}
}

func TestListFeedbackEmptySession(t *testing.T) {
	s := setupTestStore(t)

	recs, err := s.ListFeedback(context.Background(), "sess-none")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestPing(t *testing.T) {
	s := setupTestStore(t)
	assert.NoError(t, s.Ping())
}
