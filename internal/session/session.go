// Package session wires the catalog, derived-data caches, feedback store,
// and filter pipeline together for one prospect dashboard view.
//
// All mutable state for a dashboard (the two caches, the feedback map, the
// current criteria and page) is owned by one Session, created when the
// dashboard opens and discarded on teardown. Nothing here is shared across
// sessions.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/debounce"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/derived"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/errors"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/feedback"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/pipeline"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/search"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/sse"
)

// AnalysisFetcher retrieves the fit analysis for one podcast.
type AnalysisFetcher interface {
	FetchAnalysis(ctx context.Context, podcastID string) (*domain.FitAnalysis, error)
}

// DemographicsFetcher retrieves audience demographics for one podcast.
type DemographicsFetcher interface {
	FetchDemographics(ctx context.Context, podcastID string) (*domain.Demographics, error)
}

// Emitter broadcasts dashboard events. Satisfied by *sse.Manager.
type Emitter interface {
	Emit(event sse.Event)
}

// NoopEmitter discards events. Used in tests.
type NoopEmitter struct{}

// Emit implements Emitter as a no-op.
func (NoopEmitter) Emit(sse.Event) {}

// Session is the orchestrator for one open dashboard.
type Session struct {
	key string

	mu       sync.Mutex
	podcasts []*domain.Podcast
	byID     map[string]*domain.Podcast
	criteria domain.Criteria
	page     int
	pageSize int

	analysis     *derived.Cache[domain.FitAnalysis]
	demographics *derived.Cache[domain.Demographics]
	feedback     *feedback.Store
	suggest      *search.Index
	debouncer    *debounce.Debouncer

	analysisFetch     AnalysisFetcher
	demographicsFetch DemographicsFetcher
	emitter           Emitter
	logger            *slog.Logger
}

// Key returns the session key.
func (s *Session) Key() string {
	return s.key
}

// Size returns the catalog size.
func (s *Session) Size() int {
	return len(s.podcasts)
}

// prewarm seeds both caches from derived data embedded in the catalog, so
// the progress counter reflects curation-time insights immediately and no
// redundant fetch is ever issued for them.
func (s *Session) prewarm() {
	for _, p := range s.podcasts {
		if p.Analysis != nil {
			s.analysis.Seed(p.ID, p.Analysis)
		}
		if p.Demographics != nil {
			s.demographics.Seed(p.ID, p.Demographics)
		}
	}
}

// View recomputes the result view for the current criteria and page.
func (s *Session) View() domain.ResultView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pipeline.Apply(s.podcasts, s.feedback.Map(), s.criteria, s.page, s.pageSize)
}

// CriteriaPatch is a partial criteria update; nil fields are left unchanged.
type CriteriaPatch struct {
	Query          *string
	CategoryIDs    *[]string
	Feedback       *domain.FeedbackFilter
	EpisodeBucket  *string
	AudienceBucket *string
	Sort           *domain.SortMode
}

// SetCriteria replaces the criteria wholesale with the patched value and
// resets the view to page 1. Carrying a page number across a criteria change
// would let a stale page point past the new, smaller result set.
func (s *Session) SetCriteria(patch CriteriaPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.criteria
	if patch.Query != nil {
		next.Query = *patch.Query
	}
	if patch.CategoryIDs != nil {
		next.CategoryIDs = append([]string(nil), (*patch.CategoryIDs)...)
	}
	if patch.Feedback != nil {
		next.Feedback = *patch.Feedback
	}
	if patch.EpisodeBucket != nil {
		next.EpisodeBucket = *patch.EpisodeBucket
	}
	if patch.AudienceBucket != nil {
		next.AudienceBucket = *patch.AudienceBucket
	}
	if patch.Sort != nil {
		next.Sort = *patch.Sort
	}

	if err := next.Validate(); err != nil {
		return errors.Validation(err.Error())
	}

	s.criteria = next
	s.page = 1
	return nil
}

// Criteria returns the current criteria value.
func (s *Session) Criteria() domain.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// SetPage moves to a page within the current criteria. Out-of-range values
// are clamped by the pipeline when the view is computed.
func (s *Session) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 1 {
		page = 1
	}
	s.page = page
}

// Page returns the current page number.
func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// QueryInput feeds one search-box keystroke into the debouncer. The criteria
// update (and page reset) happens only after the input goes quiet.
func (s *Session) QueryInput(text string) {
	s.debouncer.Input(text)
}

func (s *Session) setQuery(text string) {
	s.mu.Lock()
	s.criteria.Query = text
	s.page = 1
	s.mu.Unlock()

	// The query endpoint returned 202 before this fired; tell clients the
	// view is stale now that the input actually applied.
	s.emitter.Emit(sse.NewViewChangedEvent(s.key))
}

// SelectResult reports the cache entries for a selected podcast. A pending
// entry means "still analyzing"; a settled entry with a nil value means the
// backend has nothing for this show.
type SelectResult struct {
	Podcast      *domain.Podcast
	Analysis     derived.Entry[domain.FitAnalysis]
	Demographics derived.Entry[domain.Demographics]
}

// Select handles the reviewer opening a podcast's detail panel: both derived
// caches are ensured for that podcast. The fetches are single-flight per
// podcast, so re-selecting while a fetch is pending never duplicates work,
// and a result is always cached under its own podcast ID even if the
// reviewer has moved on by the time it lands.
func (s *Session) Select(ctx context.Context, podcastID string) (SelectResult, error) {
	s.mu.Lock()
	p, ok := s.byID[podcastID]
	s.mu.Unlock()
	if !ok {
		return SelectResult{}, errors.NotFoundf("podcast %s not in this session's catalog", podcastID)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := s.analysis.Ensure(ctx, podcastID, s.analysisFetch.FetchAnalysis); err != nil {
			s.logger.Warn("fit analysis unavailable", "podcast_id", podcastID, "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := s.demographics.Ensure(ctx, podcastID, s.demographicsFetch.FetchDemographics); err != nil {
			s.logger.Warn("demographics unavailable", "podcast_id", podcastID, "error", err)
		}
	}()
	wg.Wait()

	settled, total := s.Progress()
	s.emitter.Emit(sse.NewInsightsProgressEvent(s.key, settled, total))

	return SelectResult{
		Podcast:      p,
		Analysis:     s.analysis.Peek(podcastID),
		Demographics: s.demographics.Peek(podcastID),
	}, nil
}

// AnalysisEntry returns the analysis cache state for loading indicators,
// keyed per podcast rather than as one global flag.
func (s *Session) AnalysisEntry(podcastID string) derived.Entry[domain.FitAnalysis] {
	return s.analysis.Peek(podcastID)
}

// DemographicsEntry returns the demographics cache state for one podcast.
func (s *Session) DemographicsEntry(podcastID string) derived.Entry[domain.Demographics] {
	return s.demographics.Peek(podcastID)
}

// SetStatus records the reviewer's verdict for a podcast and re-enters it
// into the next view computation.
func (s *Session) SetStatus(ctx context.Context, podcastID string, status domain.FeedbackStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[podcastID]
	if !ok {
		return errors.NotFoundf("podcast %s not in this session's catalog", podcastID)
	}

	if err := s.feedback.SetStatus(ctx, podcastID, p.Name, status); err != nil {
		return err
	}

	s.emitter.Emit(sse.NewFeedbackUpdatedEvent(s.key, s.feedback.Get(podcastID)))
	return nil
}

// SetNote attaches the reviewer's note to a podcast.
func (s *Session) SetNote(ctx context.Context, podcastID, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[podcastID]; !ok {
		return errors.NotFoundf("podcast %s not in this session's catalog", podcastID)
	}

	if err := s.feedback.SetNote(ctx, podcastID, note); err != nil {
		return err
	}

	s.emitter.Emit(sse.NewFeedbackUpdatedEvent(s.key, s.feedback.Get(podcastID)))
	return nil
}

// FeedbackFor returns the stored record for a podcast, or nil.
func (s *Session) FeedbackFor(podcastID string) *domain.FeedbackRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedback.Get(podcastID)
}

// Progress returns how many fit analyses have settled out of the catalog
// total, the "insights ready: X/Y" counter.
func (s *Session) Progress() (settled, total int) {
	return s.analysis.SettledCount(), len(s.podcasts)
}

// Suggest serves typeahead completions from the session's catalog index.
func (s *Session) Suggest(query string, limit int) ([]search.Suggestion, error) {
	return s.suggest.Suggest(query, limit)
}

// Teardown releases session resources: the pending debounce timer and the
// suggest index. Cache contents are simply dropped with the session.
func (s *Session) Teardown() {
	s.debouncer.Stop()
	if err := s.suggest.Close(); err != nil {
		s.logger.Warn("failed to close suggest index", "session_key", s.key, "error", err)
	}
}
