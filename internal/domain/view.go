package domain

import "fmt"

// ResultView is the ordered, filtered, paginated projection of the catalog.
// It is recomputed on demand and never stored; Items reference the catalog's
// podcasts directly.
type ResultView struct {
	Items      []*Podcast `json:"items"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

func errInvalid(what, value string) error {
	return fmt.Errorf("unknown %s %q", what, value)
}
