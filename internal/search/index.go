package search

import (
	"fmt"
	"log/slog"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
)

// Index is a session-scoped, memory-only Bleve index over the catalog. It is
// built once at catalog load and torn down with the session.
type Index struct {
	index  bleve.Index
	logger *slog.Logger
}

// New builds the index from the session's catalog.
func New(podcasts []*domain.Podcast, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create suggest index: %w", err)
	}

	batch := idx.NewBatch()
	for _, p := range podcasts {
		if err := batch.Index(p.ID, newDocument(p)); err != nil {
			return nil, fmt.Errorf("index podcast %s: %w", p.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("commit suggest index: %w", err)
	}

	logger.Debug("suggest index built", "podcasts", len(podcasts))
	return &Index{index: idx, logger: logger}, nil
}

func buildMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("name", textField)
	doc.AddFieldMappingsAt("publisher", textField)
	doc.AddFieldMappingsAt("categories", textField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Suggest returns up to limit podcasts matching the partial query, fuzzy and
// prefix matches combined.
func (i *Index) Suggest(query string, limit int) ([]Suggestion, error) {
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 8
	}

	match := bleve.NewMatchQuery(query)
	match.SetFuzziness(1)
	prefix := bleve.NewPrefixQuery(query)

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(match, prefix), limit, 0, false)
	req.Fields = []string{"name", "publisher"}

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("suggest query %q: %w", query, err)
	}

	suggestions := make([]Suggestion, 0, len(res.Hits))
	for _, hit := range res.Hits {
		s := Suggestion{ID: hit.ID}
		if name, ok := hit.Fields["name"].(string); ok {
			s.Name = name
		}
		if pub, ok := hit.Fields["publisher"].(string); ok {
			s.Publisher = pub
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, nil
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}
