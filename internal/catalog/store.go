// Package catalog loads and holds the curated podcast list for each
// dashboard session.
package catalog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/errors"
)

// Fetcher retrieves the curated catalog from the matching backend.
type Fetcher interface {
	FetchCatalog(ctx context.Context, sessionKey string) ([]*domain.Podcast, error)
}

type load struct {
	done     chan struct{}
	podcasts []*domain.Podcast
	err      error
}

// Store loads a session's catalog exactly once and serves it from memory
// afterwards. Concurrent first loads for the same session key share a single
// fetch. Failed loads are not cached, so a dashboard reopen can retry.
type Store struct {
	mu      sync.Mutex
	loads   map[string]*load
	fetcher Fetcher
	logger  *slog.Logger
}

// New creates a catalog store backed by the given fetcher.
func New(fetcher Fetcher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		loads:   make(map[string]*load),
		fetcher: fetcher,
		logger:  logger,
	}
}

// Load returns the catalog for a session key. The first call fetches from the
// backend; every later call for the same key returns the cached list without
// touching the fetcher again. Upstream duplicates are dropped, first
// occurrence wins.
func (s *Store) Load(ctx context.Context, sessionKey string) ([]*domain.Podcast, error) {
	s.mu.Lock()
	if l, ok := s.loads[sessionKey]; ok {
		s.mu.Unlock()
		select {
		case <-l.done:
			return l.podcasts, l.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l := &load{done: make(chan struct{})}
	s.loads[sessionKey] = l
	s.mu.Unlock()

	podcasts, err := s.fetcher.FetchCatalog(ctx, sessionKey)
	if err != nil {
		l.err = errors.Wrapf(err, errors.CodeLoadFailed, "load catalog for session %s", sessionKey)
		s.logger.Error("catalog load failed", "session_key", sessionKey, "error", err)

		// Drop the failed load so a retry can start fresh.
		s.mu.Lock()
		delete(s.loads, sessionKey)
		s.mu.Unlock()

		close(l.done)
		return nil, l.err
	}

	l.podcasts = dedupe(podcasts)
	close(l.done)

	s.logger.Info("catalog loaded",
		"session_key", sessionKey,
		"podcasts", len(l.podcasts),
		"upstream", len(podcasts))
	return l.podcasts, nil
}

// Evict forgets a session's catalog. Called on dashboard teardown.
func (s *Store) Evict(sessionKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loads, sessionKey)
}

// dedupe drops podcasts with a repeated ID, keeping the first occurrence.
// Upstream curation occasionally double-lists a show.
func dedupe(podcasts []*domain.Podcast) []*domain.Podcast {
	seen := make(map[string]struct{}, len(podcasts))
	out := make([]*domain.Podcast, 0, len(podcasts))
	for _, p := range podcasts {
		if p == nil || p.ID == "" {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
