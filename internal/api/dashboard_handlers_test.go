package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/catalog"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/session"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/sse"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/store"
)

// fakeBackend stands in for the matching service.
type fakeBackend struct {
	podcasts []*domain.Podcast
	analyses map[string]*domain.FitAnalysis
}

func (f *fakeBackend) FetchCatalog(context.Context, string) ([]*domain.Podcast, error) {
	return f.podcasts, nil
}

func (f *fakeBackend) FetchAnalysis(_ context.Context, podcastID string) (*domain.FitAnalysis, error) {
	return f.analyses[podcastID], nil
}

func (f *fakeBackend) FetchDemographics(context.Context, string) (*domain.Demographics, error) {
	return nil, nil
}

type apiTestServer struct {
	*Server
	api humatest.TestAPI
}

func setupTestServer(t *testing.T) *apiTestServer {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})

	be := &fakeBackend{
		podcasts: []*domain.Podcast{
			{ID: "p1", Name: "Startup Stories", Publisher: "Acme Media", AudienceSize: 120_000, EpisodeCount: 310},
			{ID: "p2", Name: "The Marketing Hour", Publisher: "Indie Audio", AudienceSize: 8_000, EpisodeCount: 45},
			{ID: "p3", Name: "Deep Tech Weekly", Publisher: "Acme Media", AudienceSize: 30_000, EpisodeCount: 120},
		},
		analyses: map[string]*domain.FitAnalysis{
			"p2": {Description: "Strong fit", FitReasons: []string{"audience overlap"}},
		},
	}

	sseManager := sse.NewManager(nil)
	sessions := session.NewManager(
		catalog.New(be, nil),
		be, be,
		st, st,
		nil,
		sseManager,
		session.Config{},
		nil,
	)
	t.Cleanup(sessions.Shutdown)

	s := NewServer(sessions, st, sseManager, sse.NewHandler(sseManager, nil), nil)

	return &apiTestServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

func (ts *apiTestServer) openDashboard(t *testing.T, sessionKey string) {
	t.Helper()
	resp := ts.api.Post("/api/v1/dashboards", map[string]any{"session_key": sessionKey})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestOpenDashboard(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/dashboards", map[string]any{"session_key": "sess-1"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body DashboardResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "sess-1", body.SessionKey)
	assert.Equal(t, 3, body.View.Total)
	assert.Len(t, body.View.Items, 3)
	assert.Equal(t, 3, body.Progress.Total)
}

func TestOpenDashboardMissingKey(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/dashboards", map[string]any{"session_key": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetViewRequiresOpenDashboard(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/dashboards/sess-x/view")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpdateCriteriaFiltersView(t *testing.T) {
	ts := setupTestServer(t)
	ts.openDashboard(t, "sess-1")

	resp := ts.api.Patch("/api/v1/dashboards/sess-1/criteria", map[string]any{
		"audience_bucket": "50k-plus",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var view ViewResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	require.Len(t, view.Items, 1)
	assert.Equal(t, "p1", view.Items[0].ID)
	assert.Equal(t, 1, view.Page)
}

func TestUpdateCriteriaUnknownBucket(t *testing.T) {
	ts := setupTestServer(t)
	ts.openDashboard(t, "sess-1")

	resp := ts.api.Patch("/api/v1/dashboards/sess-1/criteria", map[string]any{
		"audience_bucket": "audience-of-millions",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSelectPodcast(t *testing.T) {
	ts := setupTestServer(t)
	ts.openDashboard(t, "sess-1")

	resp := ts.api.Post("/api/v1/dashboards/sess-1/select/p2")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body SelectResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "p2", body.Podcast.ID)
	assert.Equal(t, "settled", body.Analysis.State)
	require.NotNil(t, body.Analysis.Value)
	assert.Equal(t, "Strong fit", body.Analysis.Value.Description)

	// No demographics coverage settles as explicit absent.
	assert.Equal(t, "settled", body.Demographics.State)
	assert.True(t, body.Demographics.Absent)
	assert.Nil(t, body.Demographics.Value)
}

func TestSelectUnknownPodcast(t *testing.T) {
	ts := setupTestServer(t)
	ts.openDashboard(t, "sess-1")

	resp := ts.api.Post("/api/v1/dashboards/sess-1/select/p99")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSetFeedbackStatus(t *testing.T) {
	ts := setupTestServer(t)
	ts.openDashboard(t, "sess-1")

	resp := ts.api.Put("/api/v1/dashboards/sess-1/feedback/p1/status", map[string]any{
		"status": "approved",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body FeedbackResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "p1", body.PodcastID)
	assert.Equal(t, "approved", body.Status)

	// The verdict shows up on view items.
	view := ts.api.Get("/api/v1/dashboards/sess-1/view")
	var v ViewResponse
	require.NoError(t, json.Unmarshal(view.Body.Bytes(), &v))
	for _, item := range v.Items {
		if item.ID == "p1" {
			require.NotNil(t, item.Feedback)
			assert.Equal(t, "approved", item.Feedback.Status)
		}
	}
}

func TestSetFeedbackStatusInvalid(t *testing.T) {
	ts := setupTestServer(t)
	ts.openDashboard(t, "sess-1")

	resp := ts.api.Put("/api/v1/dashboards/sess-1/feedback/p1/status", map[string]any{
		"status": "maybe",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSetFeedbackNote(t *testing.T) {
	ts := setupTestServer(t)
	ts.openDashboard(t, "sess-1")

	resp := ts.api.Put("/api/v1/dashboards/sess-1/feedback/p2/note", map[string]any{
		"note": "pitch the growth angle",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body FeedbackResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "pitch the growth angle", body.Note)
}

func TestFeedbackFilterRoundTrip(t *testing.T) {
	ts := setupTestServer(t)
	ts.openDashboard(t, "sess-1")

	ts.api.Put("/api/v1/dashboards/sess-1/feedback/p1/status", map[string]any{"status": "rejected"})

	resp := ts.api.Patch("/api/v1/dashboards/sess-1/criteria", map[string]any{
		"feedback": "pending",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var view ViewResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	assert.Equal(t, 2, view.Total, "rejected podcast drops out of the pending view")
}

func TestGetProgress(t *testing.T) {
	ts := setupTestServer(t)
	ts.openDashboard(t, "sess-1")

	ts.api.Post("/api/v1/dashboards/sess-1/select/p2")

	resp := ts.api.Get("/api/v1/dashboards/sess-1/progress")
	require.Equal(t, http.StatusOK, resp.Code)

	var body ProgressResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Settled)
	assert.Equal(t, 3, body.Total)
}

func TestSuggest(t *testing.T) {
	ts := setupTestServer(t)
	ts.openDashboard(t, "sess-1")

	resp := ts.api.Get("/api/v1/dashboards/sess-1/suggest?q=startup")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body struct {
		Query       string               `json:"query"`
		Suggestions []SuggestionResponse `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "startup", body.Query)
	require.NotEmpty(t, body.Suggestions)
	assert.Equal(t, "p1", body.Suggestions[0].ID)
}

func TestCloseDashboard(t *testing.T) {
	ts := setupTestServer(t)
	ts.openDashboard(t, "sess-1")

	resp := ts.api.Delete("/api/v1/dashboards/sess-1")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	after := ts.api.Get("/api/v1/dashboards/sess-1/view")
	assert.Equal(t, http.StatusNotFound, after.Code)
}

func TestQueryInputDebounced(t *testing.T) {
	ts := setupTestServer(t)
	ts.openDashboard(t, "sess-1")

	resp := ts.api.Post("/api/v1/dashboards/sess-1/query", map[string]any{"text": "deep"})
	assert.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Contains(t, body.Components, "database")
	assert.Contains(t, body.Components, "sse")
}
