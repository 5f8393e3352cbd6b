package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/session"
)

func (s *Server) registerDashboardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "openDashboard",
		Method:      http.MethodPost,
		Path:        "/api/v1/dashboards",
		Summary:     "Open a dashboard",
		Description: "Loads the curated catalog for a prospect session and returns the initial view",
		Tags:        []string{"Dashboards"},
	}, s.handleOpenDashboard)

	huma.Register(s.api, huma.Operation{
		OperationID: "getDashboardView",
		Method:      http.MethodGet,
		Path:        "/api/v1/dashboards/{sessionKey}/view",
		Summary:     "Get the current result view",
		Tags:        []string{"Dashboards"},
	}, s.handleGetView)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCriteria",
		Method:      http.MethodPatch,
		Path:        "/api/v1/dashboards/{sessionKey}/criteria",
		Summary:     "Update filter criteria",
		Description: "Applies a partial criteria update and returns the refreshed view, reset to page 1",
		Tags:        []string{"Dashboards"},
	}, s.handleUpdateCriteria)

	huma.Register(s.api, huma.Operation{
		OperationID:   "queryInput",
		Method:        http.MethodPost,
		Path:          "/api/v1/dashboards/{sessionKey}/query",
		Summary:       "Feed search-box input",
		Description:   "Accepts one search-box keystroke; the query criterion updates after input goes quiet",
		Tags:          []string{"Dashboards"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleQueryInput)

	huma.Register(s.api, huma.Operation{
		OperationID: "selectPodcast",
		Method:      http.MethodPost,
		Path:        "/api/v1/dashboards/{sessionKey}/select/{podcastID}",
		Summary:     "Select a podcast",
		Description: "Ensures fit analysis and demographics for the podcast and returns their cache entries",
		Tags:        []string{"Dashboards"},
	}, s.handleSelect)

	huma.Register(s.api, huma.Operation{
		OperationID: "setFeedbackStatus",
		Method:      http.MethodPut,
		Path:        "/api/v1/dashboards/{sessionKey}/feedback/{podcastID}/status",
		Summary:     "Set reviewer verdict",
		Tags:        []string{"Feedback"},
	}, s.handleSetStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "setFeedbackNote",
		Method:      http.MethodPut,
		Path:        "/api/v1/dashboards/{sessionKey}/feedback/{podcastID}/note",
		Summary:     "Set reviewer note",
		Tags:        []string{"Feedback"},
	}, s.handleSetNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProgress",
		Method:      http.MethodGet,
		Path:        "/api/v1/dashboards/{sessionKey}/progress",
		Summary:     "Get insight progress",
		Description: "Returns how many fit analyses have settled out of the catalog total",
		Tags:        []string{"Dashboards"},
	}, s.handleGetProgress)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggest",
		Method:      http.MethodGet,
		Path:        "/api/v1/dashboards/{sessionKey}/suggest",
		Summary:     "Typeahead suggestions",
		Tags:        []string{"Dashboards"},
	}, s.handleSuggest)

	huma.Register(s.api, huma.Operation{
		OperationID:   "closeDashboard",
		Method:        http.MethodDelete,
		Path:          "/api/v1/dashboards/{sessionKey}",
		Summary:       "Close a dashboard",
		Tags:          []string{"Dashboards"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleCloseDashboard)
}

// === DTOs ===

// CategoryResponse is one topical tag on a podcast.
type CategoryResponse struct {
	ID   string `json:"id" doc:"Category ID"`
	Name string `json:"name" doc:"Display name"`
}

// FeedbackResponse is the reviewer's verdict and note for one podcast.
type FeedbackResponse struct {
	PodcastID string    `json:"podcast_id" doc:"Podcast the verdict applies to"`
	Status    string    `json:"status" doc:"Verdict: none, approved, or rejected"`
	Note      string    `json:"note,omitempty" doc:"Free-form reviewer note"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last change time"`
}

// PodcastResponse is one catalog item in a result view.
type PodcastResponse struct {
	ID           string             `json:"id" doc:"Podcast ID"`
	Name         string             `json:"name" doc:"Show name"`
	Publisher    string             `json:"publisher,omitempty" doc:"Publisher or network"`
	ImageURL     string             `json:"image_url,omitempty" doc:"Cover art URL"`
	Description  string             `json:"description,omitempty" doc:"Show description"`
	AudienceSize int64              `json:"audience_size" doc:"Estimated audience size"`
	EpisodeCount int                `json:"episode_count" doc:"Published episode count"`
	Rating       float64            `json:"rating,omitempty" doc:"Average listener rating"`
	LastActiveAt time.Time          `json:"last_active_at" doc:"Most recent episode date"`
	Categories   []CategoryResponse `json:"categories,omitempty" doc:"Topical tags"`
	Feedback     *FeedbackResponse  `json:"feedback,omitempty" doc:"Reviewer verdict, if any"`
}

// ViewResponse is the filtered, sorted, paginated projection of the catalog.
type ViewResponse struct {
	Items      []PodcastResponse `json:"items" doc:"Podcasts on this page"`
	Total      int               `json:"total" doc:"Total matches across all pages"`
	Page       int               `json:"page" doc:"Current page (1-based)"`
	PageSize   int               `json:"page_size" doc:"Items per page"`
	TotalPages int               `json:"total_pages" doc:"Total page count, at least 1"`
	Criteria   domain.Criteria   `json:"criteria" doc:"Criteria the view was computed under"`
}

// ProgressResponse is the insights-ready counter.
type ProgressResponse struct {
	Settled int `json:"settled" doc:"Podcasts with a settled fit analysis"`
	Total   int `json:"total" doc:"Catalog size"`
}

// AnalysisEntryResponse is the cache entry for one podcast's fit analysis.
type AnalysisEntryResponse struct {
	State  string              `json:"state" doc:"Entry state: unset, pending, or settled"`
	Absent bool                `json:"absent,omitempty" doc:"Settled with no data available"`
	Value  *domain.FitAnalysis `json:"value,omitempty" doc:"Fit analysis, when settled with data"`
}

// DemographicsEntryResponse is the cache entry for one podcast's demographics.
type DemographicsEntryResponse struct {
	State  string               `json:"state" doc:"Entry state: unset, pending, or settled"`
	Absent bool                 `json:"absent,omitempty" doc:"Settled with no data available"`
	Value  *domain.Demographics `json:"value,omitempty" doc:"Demographics, when settled with data"`
}

// === Open ===

// OpenDashboardInput contains the request to open a dashboard.
type OpenDashboardInput struct {
	Body struct {
		SessionKey string `json:"session_key" validate:"required,min=1,max=128" doc:"Prospect session key"`
	}
}

// DashboardResponse describes a freshly opened dashboard.
type DashboardResponse struct {
	SessionKey string           `json:"session_key" doc:"Prospect session key"`
	View       ViewResponse     `json:"view" doc:"Initial result view"`
	Progress   ProgressResponse `json:"progress" doc:"Insight progress after pre-warm"`
}

// OpenDashboardOutput wraps the dashboard response for Huma.
type OpenDashboardOutput struct {
	Body DashboardResponse
}

func (s *Server) handleOpenDashboard(ctx context.Context, input *OpenDashboardInput) (*OpenDashboardOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	sess, err := s.sessions.Open(ctx, input.Body.SessionKey)
	if err != nil {
		return nil, err
	}

	settled, total := sess.Progress()
	return &OpenDashboardOutput{
		Body: DashboardResponse{
			SessionKey: sess.Key(),
			View:       s.mapView(sess),
			Progress:   ProgressResponse{Settled: settled, Total: total},
		},
	}, nil
}

// === View ===

// GetViewInput contains parameters for fetching the current view.
type GetViewInput struct {
	SessionKey string `path:"sessionKey" doc:"Prospect session key"`
	Page       int    `query:"page" doc:"Page to move to before computing the view (1-based)"`
}

// ViewOutput wraps a view response for Huma.
type ViewOutput struct {
	Body ViewResponse
}

func (s *Server) handleGetView(_ context.Context, input *GetViewInput) (*ViewOutput, error) {
	sess, err := s.sessions.Get(input.SessionKey)
	if err != nil {
		return nil, err
	}

	if input.Page > 0 {
		sess.SetPage(input.Page)
	}

	return &ViewOutput{Body: s.mapView(sess)}, nil
}

// === Criteria ===

// CriteriaPatchRequest is a partial criteria update; omitted fields are left
// unchanged.
type CriteriaPatchRequest struct {
	Query          *string   `json:"query,omitempty" doc:"Text filter over name, description, and publisher"`
	CategoryIDs    *[]string `json:"category_ids,omitempty" doc:"Category IDs to intersect with; empty list clears the filter"`
	Feedback       *string   `json:"feedback,omitempty" validate:"omitempty,oneof=all approved rejected pending" doc:"Verdict filter: all, approved, rejected, or pending"`
	EpisodeBucket  *string   `json:"episode_bucket,omitempty" doc:"Episode count bucket ID, or any"`
	AudienceBucket *string   `json:"audience_bucket,omitempty" doc:"Audience size bucket ID, or any"`
	Sort           *string   `json:"sort,omitempty" validate:"omitempty,oneof=default audience_asc audience_desc name" doc:"Sort mode"`
}

// UpdateCriteriaInput contains a criteria patch for one dashboard.
type UpdateCriteriaInput struct {
	SessionKey string `path:"sessionKey" doc:"Prospect session key"`
	Body       CriteriaPatchRequest
}

func (s *Server) handleUpdateCriteria(_ context.Context, input *UpdateCriteriaInput) (*ViewOutput, error) {
	sess, err := s.sessions.Get(input.SessionKey)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	patch := session.CriteriaPatch{
		Query:          input.Body.Query,
		CategoryIDs:    input.Body.CategoryIDs,
		EpisodeBucket:  input.Body.EpisodeBucket,
		AudienceBucket: input.Body.AudienceBucket,
	}
	if input.Body.Feedback != nil {
		f := domain.FeedbackFilter(normalizeAll(*input.Body.Feedback))
		patch.Feedback = &f
	}
	if input.Body.Sort != nil {
		m := domain.SortMode(normalizeDefault(*input.Body.Sort))
		patch.Sort = &m
	}

	if err := sess.SetCriteria(patch); err != nil {
		return nil, err
	}

	return &ViewOutput{Body: s.mapView(sess)}, nil
}

// "all" and "default" are the wire spellings of the zero values.
func normalizeAll(v string) string {
	if v == "all" {
		return ""
	}
	return v
}

func normalizeDefault(v string) string {
	if v == "default" {
		return ""
	}
	return v
}

// === Query input ===

// QueryInputRequest carries one search-box keystroke.
type QueryInputRequest struct {
	SessionKey string `path:"sessionKey" doc:"Prospect session key"`
	Body       struct {
		Text string `json:"text" validate:"max=200" doc:"Current search-box contents"`
	}
}

func (s *Server) handleQueryInput(_ context.Context, input *QueryInputRequest) (*struct{}, error) {
	sess, err := s.sessions.Get(input.SessionKey)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	sess.QueryInput(input.Body.Text)
	return nil, nil
}

// === Select ===

// SelectInput identifies the podcast being opened in the detail panel.
type SelectInput struct {
	SessionKey string `path:"sessionKey" doc:"Prospect session key"`
	PodcastID  string `path:"podcastID" doc:"Podcast ID"`
}

// SelectResponse contains the podcast and its derived-data cache entries.
type SelectResponse struct {
	Podcast      PodcastResponse           `json:"podcast" doc:"The selected podcast"`
	Analysis     AnalysisEntryResponse     `json:"analysis" doc:"Fit analysis cache entry"`
	Demographics DemographicsEntryResponse `json:"demographics" doc:"Demographics cache entry"`
	Progress     ProgressResponse          `json:"progress" doc:"Insight progress after the fetch"`
}

// SelectOutput wraps the select response for Huma.
type SelectOutput struct {
	Body SelectResponse
}

func (s *Server) handleSelect(ctx context.Context, input *SelectInput) (*SelectOutput, error) {
	sess, err := s.sessions.Get(input.SessionKey)
	if err != nil {
		return nil, err
	}

	res, err := sess.Select(ctx, input.PodcastID)
	if err != nil {
		return nil, err
	}

	settled, total := sess.Progress()
	return &SelectOutput{
		Body: SelectResponse{
			Podcast: s.mapPodcast(sess, res.Podcast),
			Analysis: AnalysisEntryResponse{
				State:  res.Analysis.State.String(),
				Absent: res.Analysis.Absent(),
				Value:  res.Analysis.Value,
			},
			Demographics: DemographicsEntryResponse{
				State:  res.Demographics.State.String(),
				Absent: res.Demographics.Absent(),
				Value:  res.Demographics.Value,
			},
			Progress: ProgressResponse{Settled: settled, Total: total},
		},
	}, nil
}

// === Feedback ===

// SetStatusInput carries the reviewer's verdict for one podcast.
type SetStatusInput struct {
	SessionKey string `path:"sessionKey" doc:"Prospect session key"`
	PodcastID  string `path:"podcastID" doc:"Podcast ID"`
	Body       struct {
		Status string `json:"status" validate:"required,oneof=none approved rejected" doc:"Verdict: none, approved, or rejected"`
	}
}

// FeedbackOutput wraps a feedback response for Huma.
type FeedbackOutput struct {
	Body FeedbackResponse
}

func (s *Server) handleSetStatus(ctx context.Context, input *SetStatusInput) (*FeedbackOutput, error) {
	sess, err := s.sessions.Get(input.SessionKey)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	if err := sess.SetStatus(ctx, input.PodcastID, domain.FeedbackStatus(input.Body.Status)); err != nil {
		return nil, err
	}

	return &FeedbackOutput{Body: mapFeedback(input.PodcastID, sess.FeedbackFor(input.PodcastID))}, nil
}

// SetNoteInput carries the reviewer's note for one podcast.
type SetNoteInput struct {
	SessionKey string `path:"sessionKey" doc:"Prospect session key"`
	PodcastID  string `path:"podcastID" doc:"Podcast ID"`
	Body       struct {
		Note string `json:"note" validate:"max=2000" doc:"Free-form note; empty clears it"`
	}
}

func (s *Server) handleSetNote(ctx context.Context, input *SetNoteInput) (*FeedbackOutput, error) {
	sess, err := s.sessions.Get(input.SessionKey)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	if err := sess.SetNote(ctx, input.PodcastID, input.Body.Note); err != nil {
		return nil, err
	}

	return &FeedbackOutput{Body: mapFeedback(input.PodcastID, sess.FeedbackFor(input.PodcastID))}, nil
}

// === Progress ===

// GetProgressInput identifies the dashboard to report progress for.
type GetProgressInput struct {
	SessionKey string `path:"sessionKey" doc:"Prospect session key"`
}

// ProgressOutput wraps the progress counter for Huma.
type ProgressOutput struct {
	Body ProgressResponse
}

func (s *Server) handleGetProgress(_ context.Context, input *GetProgressInput) (*ProgressOutput, error) {
	sess, err := s.sessions.Get(input.SessionKey)
	if err != nil {
		return nil, err
	}

	settled, total := sess.Progress()
	return &ProgressOutput{Body: ProgressResponse{Settled: settled, Total: total}}, nil
}

// === Suggest ===

// SuggestInput contains typeahead parameters.
type SuggestInput struct {
	SessionKey string `path:"sessionKey" doc:"Prospect session key"`
	Query      string `query:"q" doc:"Partial query text"`
	Limit      int    `query:"limit" doc:"Max suggestions (default 8)"`
}

// SuggestionResponse is one typeahead completion.
type SuggestionResponse struct {
	ID        string `json:"id" doc:"Podcast ID"`
	Name      string `json:"name" doc:"Show name"`
	Publisher string `json:"publisher,omitempty" doc:"Publisher or network"`
}

// SuggestOutput wraps suggestions for Huma.
type SuggestOutput struct {
	Body struct {
		Query       string               `json:"query" doc:"Original partial query"`
		Suggestions []SuggestionResponse `json:"suggestions" doc:"Matching podcasts"`
	}
}

func (s *Server) handleSuggest(_ context.Context, input *SuggestInput) (*SuggestOutput, error) {
	sess, err := s.sessions.Get(input.SessionKey)
	if err != nil {
		return nil, err
	}

	hits, err := sess.Suggest(input.Query, input.Limit)
	if err != nil {
		return nil, err
	}

	out := &SuggestOutput{}
	out.Body.Query = input.Query
	out.Body.Suggestions = make([]SuggestionResponse, 0, len(hits))
	for _, h := range hits {
		out.Body.Suggestions = append(out.Body.Suggestions, SuggestionResponse{
			ID:        h.ID,
			Name:      h.Name,
			Publisher: h.Publisher,
		})
	}
	return out, nil
}

// === Close ===

// CloseDashboardInput identifies the dashboard to close.
type CloseDashboardInput struct {
	SessionKey string `path:"sessionKey" doc:"Prospect session key"`
}

func (s *Server) handleCloseDashboard(_ context.Context, input *CloseDashboardInput) (*struct{}, error) {
	s.sessions.Close(input.SessionKey)
	return nil, nil
}

// === Mappers ===

func (s *Server) mapView(sess *session.Session) ViewResponse {
	view := sess.View()

	items := make([]PodcastResponse, 0, len(view.Items))
	for _, p := range view.Items {
		items = append(items, s.mapPodcast(sess, p))
	}

	return ViewResponse{
		Items:      items,
		Total:      view.Total,
		Page:       view.Page,
		PageSize:   view.PageSize,
		TotalPages: view.TotalPages,
		Criteria:   sess.Criteria(),
	}
}

func (s *Server) mapPodcast(sess *session.Session, p *domain.Podcast) PodcastResponse {
	resp := PodcastResponse{
		ID:           p.ID,
		Name:         p.Name,
		Publisher:    p.Publisher,
		ImageURL:     p.ImageURL,
		Description:  p.Description,
		AudienceSize: p.AudienceSize,
		EpisodeCount: p.EpisodeCount,
		Rating:       p.Rating,
		LastActiveAt: p.LastActiveAt,
	}
	for _, c := range p.Categories {
		resp.Categories = append(resp.Categories, CategoryResponse{ID: c.ID, Name: c.Name})
	}
	if rec := sess.FeedbackFor(p.ID); rec != nil {
		fb := mapFeedback(p.ID, rec)
		resp.Feedback = &fb
	}
	return resp
}

func mapFeedback(podcastID string, rec *domain.FeedbackRecord) FeedbackResponse {
	if rec == nil {
		return FeedbackResponse{PodcastID: podcastID, Status: string(domain.StatusNone)}
	}
	return FeedbackResponse{
		PodcastID: rec.PodcastID,
		Status:    string(rec.Status),
		Note:      rec.Note,
		UpdatedAt: rec.UpdatedAt,
	}
}
