// Package domain contains the core types for the prospect matching dashboard:
// curated podcast candidates, derived insight data, reviewer feedback, and the
// filter criteria the dashboard projects them through.
package domain

import "time"

// Category is a topical tag attached to a podcast by the matching backend.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Podcast is one candidate show curated for a prospect. The catalog is
// immutable for the lifetime of a dashboard session; nothing adds or removes
// podcasts client-side after load.
type Podcast struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Publisher    string     `json:"publisher"`
	ImageURL     string     `json:"image_url,omitempty"`
	Description  string     `json:"description,omitempty"`
	AudienceSize int64      `json:"audience_size"`
	EpisodeCount int        `json:"episode_count"`
	Rating       float64    `json:"rating,omitempty"`
	LastActiveAt time.Time  `json:"last_active_at"`
	Categories   []Category `json:"categories,omitempty"`

	// Derived data the backend already computed at curation time.
	// When present these pre-warm the session caches so the dashboard
	// never issues a redundant fetch for them.
	Analysis     *FitAnalysis  `json:"analysis,omitempty"`
	Demographics *Demographics `json:"demographics,omitempty"`
}

// HasCategory reports whether the podcast carries the given category ID.
func (p *Podcast) HasCategory(categoryID string) bool {
	for _, c := range p.Categories {
		if c.ID == categoryID {
			return true
		}
	}
	return false
}
