// Package search provides typeahead suggestions over a session's catalog
// using an in-memory Bleve index. It is deliberately separate from the filter
// pipeline's substring stage: the pipeline stays a pure deterministic
// function, while this index serves fuzzy "did you mean" lookups for the
// search box.
package search

import "github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"

// Document is the indexed representation of one podcast.
type Document struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Publisher  string   `json:"publisher"`
	Categories []string `json:"categories,omitempty"`
}

// newDocument maps a podcast onto its index document.
func newDocument(p *domain.Podcast) Document {
	doc := Document{
		ID:        p.ID,
		Name:      p.Name,
		Publisher: p.Publisher,
	}
	for _, c := range p.Categories {
		doc.Categories = append(doc.Categories, c.Name)
	}
	return doc
}

// Suggestion is one typeahead hit.
type Suggestion struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Publisher string `json:"publisher,omitempty"`
}
