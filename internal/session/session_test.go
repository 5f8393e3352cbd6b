package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/catalog"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/derived"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
	domainerrors "github.com/jonathangetonapod/getonapod-app-sub000/internal/errors"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/sse"
)

// fakeBackend serves a fixed catalog plus per-podcast derived data.
type fakeBackend struct {
	mu           sync.Mutex
	podcasts     []*domain.Podcast
	analyses     map[string]*domain.FitAnalysis
	demographics map[string]*domain.Demographics
	catalogErr   error
	analysisErr  error

	catalogCalls  int
	analysisCalls int
}

func (f *fakeBackend) FetchCatalog(context.Context, string) ([]*domain.Podcast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalogCalls++
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.podcasts, nil
}

func (f *fakeBackend) FetchAnalysis(_ context.Context, podcastID string) (*domain.FitAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analysisCalls++
	if f.analysisErr != nil {
		return nil, f.analysisErr
	}
	return f.analyses[podcastID], nil
}

func (f *fakeBackend) FetchDemographics(_ context.Context, podcastID string) (*domain.Demographics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.demographics[podcastID], nil
}

type fakeUpserter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeUpserter) UpsertFeedback(context.Context, *domain.FeedbackRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

type captureEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (c *captureEmitter) Emit(event sse.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureEmitter) byType(et sse.EventType) []sse.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []sse.Event
	for _, e := range c.events {
		if e.Type == et {
			out = append(out, e)
		}
	}
	return out
}

func testPodcasts() []*domain.Podcast {
	return []*domain.Podcast{
		{ID: "p1", Name: "Startup Stories", AudienceSize: 120_000, EpisodeCount: 310,
			Analysis: &domain.FitAnalysis{Description: "prewarmed"}},
		{ID: "p2", Name: "The Marketing Hour", AudienceSize: 8_000, EpisodeCount: 45},
		{ID: "p3", Name: "Deep Tech Weekly", AudienceSize: 30_000, EpisodeCount: 120},
	}
}

func newTestManager(t *testing.T, be *fakeBackend, up *fakeUpserter, emitter Emitter, cfg Config) *Manager {
	t.Helper()
	if up == nil {
		up = &fakeUpserter{}
	}
	cat := catalog.New(be, nil)
	return NewManager(cat, be, be, up, nil, nil, emitter, cfg, nil)
}

func openTestSession(t *testing.T, be *fakeBackend) *Session {
	t.Helper()
	m := newTestManager(t, be, nil, nil, Config{})
	s, err := m.Open(context.Background(), "sess-1")
	require.NoError(t, err)
	t.Cleanup(func() { m.Shutdown() })
	return s
}

func TestOpenPrewarmsEmbeddedInsights(t *testing.T) {
	be := &fakeBackend{podcasts: testPodcasts()}
	s := openTestSession(t, be)

	settled, total := s.Progress()
	assert.Equal(t, 1, settled, "embedded analysis counts immediately")
	assert.Equal(t, 3, total)

	// Selecting the pre-warmed podcast must not refetch its analysis.
	_, err := s.Select(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, be.analysisCalls)
}

func TestCriteriaChangeResetsPage(t *testing.T) {
	be := &fakeBackend{podcasts: testPodcasts()}
	s := openTestSession(t, be)

	s.SetPage(3)
	require.Equal(t, 3, s.Page())

	q := "tech"
	require.NoError(t, s.SetCriteria(CriteriaPatch{Query: &q}))
	assert.Equal(t, 1, s.Page(), "criteria changes reset to page 1")
}

func TestSetCriteriaRejectsUnknownValues(t *testing.T) {
	be := &fakeBackend{podcasts: testPodcasts()}
	s := openTestSession(t, be)

	bad := "audience-of-millions"
	err := s.SetCriteria(CriteriaPatch{AudienceBucket: &bad})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	// Criteria unchanged after the rejected patch.
	assert.Equal(t, domain.Criteria{}, s.Criteria())
}

func TestViewAppliesCriteria(t *testing.T) {
	be := &fakeBackend{podcasts: testPodcasts()}
	s := openTestSession(t, be)

	q := "startup"
	require.NoError(t, s.SetCriteria(CriteriaPatch{Query: &q}))

	view := s.View()
	require.Len(t, view.Items, 1)
	assert.Equal(t, "p1", view.Items[0].ID)
	assert.Equal(t, 1, view.Total)
}

func TestSelectFetchesBothInsights(t *testing.T) {
	be := &fakeBackend{
		podcasts: testPodcasts(),
		analyses: map[string]*domain.FitAnalysis{
			"p2": {Description: "fetched", FitReasons: []string{"niche overlap"}},
		},
		demographics: map[string]*domain.Demographics{
			"p2": {PurchasingPower: "high"},
		},
	}
	s := openTestSession(t, be)

	res, err := s.Select(context.Background(), "p2")
	require.NoError(t, err)

	assert.Equal(t, "p2", res.Podcast.ID)
	assert.Equal(t, derived.StateSettled, res.Analysis.State)
	require.NotNil(t, res.Analysis.Value)
	assert.Equal(t, "fetched", res.Analysis.Value.Description)
	assert.Equal(t, derived.StateSettled, res.Demographics.State)
	require.NotNil(t, res.Demographics.Value)
	assert.Equal(t, "high", res.Demographics.Value.PurchasingPower)
}

func TestSelectUnknownPodcast(t *testing.T) {
	be := &fakeBackend{podcasts: testPodcasts()}
	s := openTestSession(t, be)

	_, err := s.Select(context.Background(), "p99")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestSelectAbsentInsightSettles(t *testing.T) {
	be := &fakeBackend{podcasts: testPodcasts()} // no analyses, no demographics
	s := openTestSession(t, be)

	res, err := s.Select(context.Background(), "p3")
	require.NoError(t, err)

	assert.True(t, res.Analysis.Absent(), "no data settles as explicit absent")
	assert.True(t, res.Demographics.Absent())

	// Re-selecting does not refetch a settled-absent entry.
	calls := be.analysisCalls
	_, err = s.Select(context.Background(), "p3")
	require.NoError(t, err)
	assert.Equal(t, calls, be.analysisCalls)
}

func TestSelectFailedFetchStaysRetryable(t *testing.T) {
	be := &fakeBackend{
		podcasts:    testPodcasts(),
		analysisErr: errors.New("backend down"),
	}
	s := openTestSession(t, be)

	res, err := s.Select(context.Background(), "p2")
	require.NoError(t, err, "a failed insight fetch does not fail the selection")
	assert.Equal(t, derived.StateUnset, res.Analysis.State)

	// Recovery: the next selection retries and settles.
	be.mu.Lock()
	be.analysisErr = nil
	be.analyses = map[string]*domain.FitAnalysis{"p2": {Description: "recovered"}}
	be.mu.Unlock()

	res, err = s.Select(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, derived.StateSettled, res.Analysis.State)
}

func TestProgressCounterAdvances(t *testing.T) {
	be := &fakeBackend{
		podcasts: testPodcasts(),
		analyses: map[string]*domain.FitAnalysis{"p2": {Description: "x"}},
	}
	s := openTestSession(t, be)

	settled, _ := s.Progress()
	require.Equal(t, 1, settled)

	_, err := s.Select(context.Background(), "p2")
	require.NoError(t, err)

	settled, total := s.Progress()
	assert.Equal(t, 2, settled)
	assert.Equal(t, 3, total)
}

func TestSetStatusEmitsEvent(t *testing.T) {
	be := &fakeBackend{podcasts: testPodcasts()}
	emitter := &captureEmitter{}
	m := newTestManager(t, be, nil, emitter, Config{})
	s, err := m.Open(context.Background(), "sess-1")
	require.NoError(t, err)
	defer m.Shutdown()

	require.NoError(t, s.SetStatus(context.Background(), "p1", domain.StatusApproved))

	events := emitter.byType(sse.EventFeedbackUpdated)
	require.Len(t, events, 1)
	assert.Equal(t, "sess-1", events[0].SessionKey)

	rec := s.FeedbackFor("p1")
	require.NotNil(t, rec)
	assert.Equal(t, domain.StatusApproved, rec.Status)
}

func TestSetStatusUnknownPodcast(t *testing.T) {
	be := &fakeBackend{podcasts: testPodcasts()}
	s := openTestSession(t, be)

	err := s.SetStatus(context.Background(), "p99", domain.StatusApproved)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestDebouncedQueryInput(t *testing.T) {
	be := &fakeBackend{podcasts: testPodcasts()}
	emitter := &captureEmitter{}
	m := newTestManager(t, be, nil, emitter, Config{DebounceWindow: 20 * time.Millisecond})
	s, err := m.Open(context.Background(), "sess-1")
	require.NoError(t, err)
	defer m.Shutdown()

	s.SetPage(2)
	s.QueryInput("d")
	s.QueryInput("de")
	s.QueryInput("deep tech")

	// Nothing applied until the input goes quiet.
	assert.Equal(t, "", s.Criteria().Query)

	require.Eventually(t, func() bool {
		return s.Criteria().Query == "deep tech"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, s.Page(), "a settled query resets pagination")

	// The burst collapsed to one applied query, so one invalidation.
	events := emitter.byType(sse.EventViewChanged)
	require.Len(t, events, 1)
	assert.Equal(t, "sess-1", events[0].SessionKey)
}

func TestManagerOpenIsIdempotent(t *testing.T) {
	be := &fakeBackend{podcasts: testPodcasts()}
	m := newTestManager(t, be, nil, nil, Config{})
	defer m.Shutdown()

	s1, err := m.Open(context.Background(), "sess-1")
	require.NoError(t, err)
	s2, err := m.Open(context.Background(), "sess-1")
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, 1, be.catalogCalls)
}

func TestManagerOpenLoadFailure(t *testing.T) {
	be := &fakeBackend{catalogErr: errors.New("upstream 500")}
	m := newTestManager(t, be, nil, nil, Config{})
	defer m.Shutdown()

	_, err := m.Open(context.Background(), "sess-1")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrLoadFailed))

	// Failed loads are not cached; recovery works on reopen.
	be.mu.Lock()
	be.catalogErr = nil
	be.podcasts = testPodcasts()
	be.mu.Unlock()

	s, err := m.Open(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Size())
}

func TestManagerGet(t *testing.T) {
	be := &fakeBackend{podcasts: testPodcasts()}
	m := newTestManager(t, be, nil, nil, Config{})
	defer m.Shutdown()

	_, err := m.Get("sess-1")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	opened, err := m.Open(context.Background(), "sess-1")
	require.NoError(t, err)

	got, err := m.Get("sess-1")
	require.NoError(t, err)
	assert.Same(t, opened, got)
}

func TestManagerCloseDiscardsSessionState(t *testing.T) {
	be := &fakeBackend{podcasts: testPodcasts()}
	m := newTestManager(t, be, nil, nil, Config{})
	defer m.Shutdown()

	s, err := m.Open(context.Background(), "sess-1")
	require.NoError(t, err)
	_, err = s.Select(context.Background(), "p2")
	require.NoError(t, err)

	m.Close("sess-1")
	_, err = m.Get("sess-1")
	require.Error(t, err)

	// Reopening starts from scratch: catalog refetched, caches empty again.
	s2, err := m.Open(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.NotSame(t, s, s2)
	assert.Equal(t, 2, be.catalogCalls)

	settled, _ := s2.Progress()
	assert.Equal(t, 1, settled, "only pre-warmed entries survive a reopen")
}

func TestSessionStateIsIsolatedPerSession(t *testing.T) {
	be := &fakeBackend{podcasts: testPodcasts()}
	m := newTestManager(t, be, nil, nil, Config{})
	defer m.Shutdown()

	s1, err := m.Open(context.Background(), "sess-1")
	require.NoError(t, err)
	s2, err := m.Open(context.Background(), "sess-2")
	require.NoError(t, err)

	require.NoError(t, s1.SetStatus(context.Background(), "p1", domain.StatusApproved))
	q := "tech"
	require.NoError(t, s1.SetCriteria(CriteriaPatch{Query: &q}))

	assert.Nil(t, s2.FeedbackFor("p1"), "verdicts never leak across sessions")
	assert.Equal(t, "", s2.Criteria().Query)
}

func TestSuggest(t *testing.T) {
	be := &fakeBackend{podcasts: testPodcasts()}
	s := openTestSession(t, be)

	hits, err := s.Suggest("startup", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "p1", hits[0].ID)
}
