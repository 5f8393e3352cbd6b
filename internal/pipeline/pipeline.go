// Package pipeline implements the deterministic filter/sort/paginate
// projection from the session catalog to the dashboard's result view.
//
// Apply is a pure function of its inputs: no I/O, no retained state, no
// mutation of the catalog. Stage order is fixed so that the cheap text match
// narrows the set before the category and numeric stages run.
package pipeline

import (
	"sort"
	"strings"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
)

// DefaultPageSize is the dashboard's fixed page length.
const DefaultPageSize = 18

// Apply projects the catalog through the criteria and returns one page.
// pageSize <= 0 falls back to DefaultPageSize; an out-of-range page clamps to
// the last valid page so a stale page number can never show an empty view.
func Apply(catalog []*domain.Podcast, feedback map[string]*domain.FeedbackRecord, criteria domain.Criteria, page, pageSize int) domain.ResultView {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	matched := filterQuery(catalog, criteria.Query)
	matched = filterCategories(matched, criteria.CategoryIDs)
	matched = filterFeedback(matched, feedback, criteria.Feedback)
	matched = filterBuckets(matched, criteria.EpisodeBucket, criteria.AudienceBucket)
	sortPodcasts(matched, criteria.Sort)

	return paginate(matched, page, pageSize)
}

// filterQuery keeps podcasts whose name, description, or publisher contains
// the query, case-insensitively. An empty query keeps everything.
func filterQuery(in []*domain.Podcast, query string) []*domain.Podcast {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]*domain.Podcast(nil), in...)
	}

	out := make([]*domain.Podcast, 0, len(in))
	for _, p := range in {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Description), query) ||
			strings.Contains(strings.ToLower(p.Publisher), query) {
			out = append(out, p)
		}
	}
	return out
}

// filterCategories keeps podcasts whose category set intersects the
// selection. An empty selection is a no-op.
func filterCategories(in []*domain.Podcast, categoryIDs []string) []*domain.Podcast {
	if len(categoryIDs) == 0 {
		return in
	}

	out := make([]*domain.Podcast, 0, len(in))
	for _, p := range in {
		for _, id := range categoryIDs {
			if p.HasCategory(id) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// filterFeedback keeps podcasts matching the requested verdict. A podcast
// with no record counts as pending.
func filterFeedback(in []*domain.Podcast, feedback map[string]*domain.FeedbackRecord, filter domain.FeedbackFilter) []*domain.Podcast {
	if filter == domain.FeedbackAll {
		return in
	}

	out := make([]*domain.Podcast, 0, len(in))
	for _, p := range in {
		status := domain.StatusNone
		if rec, ok := feedback[p.ID]; ok && rec != nil {
			status = rec.Status
		}

		switch filter {
		case domain.FeedbackApproved:
			if status == domain.StatusApproved {
				out = append(out, p)
			}
		case domain.FeedbackRejected:
			if status == domain.StatusRejected {
				out = append(out, p)
			}
		case domain.FeedbackPending:
			if status == domain.StatusNone {
				out = append(out, p)
			}
		}
	}
	return out
}

// filterBuckets applies the episode-count and audience-size range tests.
// Unknown bucket IDs are treated as "any"; criteria validation happens at the
// session boundary.
func filterBuckets(in []*domain.Podcast, episodeBucket, audienceBucket string) []*domain.Podcast {
	eb, _ := domain.EpisodeBucket(episodeBucket)
	ab, _ := domain.AudienceBucket(audienceBucket)
	if eb.ID == domain.BucketAny && ab.ID == domain.BucketAny {
		return in
	}

	out := make([]*domain.Podcast, 0, len(in))
	for _, p := range in {
		if !eb.Contains(int64(p.EpisodeCount)) {
			continue
		}
		if !ab.Contains(p.AudienceSize) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// sortPodcasts orders the slice in place. The sort is stable: ties keep
// their prior relative order, which keeps pagination deterministic.
func sortPodcasts(podcasts []*domain.Podcast, mode domain.SortMode) {
	switch mode {
	case domain.SortAudienceAsc:
		sort.SliceStable(podcasts, func(i, j int) bool {
			return podcasts[i].AudienceSize < podcasts[j].AudienceSize
		})
	case domain.SortAudienceDesc:
		sort.SliceStable(podcasts, func(i, j int) bool {
			return podcasts[i].AudienceSize > podcasts[j].AudienceSize
		})
	case domain.SortName:
		sort.SliceStable(podcasts, func(i, j int) bool {
			return strings.ToLower(podcasts[i].Name) < strings.ToLower(podcasts[j].Name)
		})
	default:
		// SortDefault keeps the catalog's curated order.
	}
}

// paginate slices one page out of the ordered matches. Concatenating all
// pages reproduces the full sequence exactly once each.
func paginate(matched []*domain.Podcast, page, pageSize int) domain.ResultView {
	total := len(matched)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return domain.ResultView{
		Items:      matched[start:end],
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
