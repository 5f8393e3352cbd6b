package backend

import (
	"context"
	"fmt"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/tidwall/gjson"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
)

// FetchCatalog retrieves the curated match list for a prospect session.
// Implements catalog.Fetcher.
func (c *Client) FetchCatalog(ctx context.Context, sessionKey string) ([]*domain.Podcast, error) {
	body, found, err := c.get(ctx, "/v1/sessions/"+sessionKey+"/matches")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("no curated matches for session %s", sessionKey)
	}

	matches := gjson.GetBytes(body, "matches")
	if !matches.IsArray() {
		return nil, fmt.Errorf("malformed catalog response for session %s", sessionKey)
	}

	var podcasts []*domain.Podcast
	matches.ForEach(func(_, m gjson.Result) bool {
		podcasts = append(podcasts, parsePodcast(m))
		return true
	})

	c.logger.Info("fetched catalog", "session_key", sessionKey, "matches", len(podcasts))
	return podcasts, nil
}

// parsePodcast maps one backend match object onto the domain type. Embedded
// analysis and demographics blocks become pre-warm data for the caches.
func parsePodcast(m gjson.Result) *domain.Podcast {
	p := &domain.Podcast{
		ID:           m.Get("id").String(),
		Name:         m.Get("name").String(),
		Publisher:    m.Get("publisher").String(),
		ImageURL:     m.Get("image_url").String(),
		Description:  cleanDescription(m.Get("description").String()),
		AudienceSize: m.Get("audience_size").Int(),
		EpisodeCount: int(m.Get("episode_count").Int()),
		Rating:       m.Get("rating").Float(),
	}

	if ts := m.Get("last_active_at").String(); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			p.LastActiveAt = t
		}
	}

	m.Get("categories").ForEach(func(_, cat gjson.Result) bool {
		p.Categories = append(p.Categories, domain.Category{
			ID:   cat.Get("id").String(),
			Name: cat.Get("name").String(),
		})
		return true
	})

	if a := m.Get("analysis"); a.Exists() && a.IsObject() {
		p.Analysis = parseAnalysis(a)
	}
	if d := m.Get("demographics"); d.Exists() && d.IsObject() {
		p.Demographics = parseDemographics(d)
	}

	return p
}

// cleanDescription converts the backend's HTML show descriptions to plain
// markdown. Falls back to the raw text when conversion fails.
func cleanDescription(html string) string {
	if html == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return html
	}
	return md
}
