// Package sse streams dashboard events (insight progress, feedback changes)
// to connected clients over Server-Sent Events.
package sse

import (
	"time"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventInsightsProgress reports how many fit analyses have settled.
	EventInsightsProgress EventType = "insights.progress"
	// EventFeedbackUpdated reports a verdict or note change.
	EventFeedbackUpdated EventType = "feedback.updated"
	// EventViewChanged signals that a debounced query applied and the view
	// should be refetched.
	EventViewChanged EventType = "view.changed"
	// EventHeartbeat keeps the connection alive.
	EventHeartbeat EventType = "heartbeat"
)

// Event is one SSE event scoped to a dashboard session.
type Event struct {
	Type       EventType `json:"type"`
	SessionKey string    `json:"session_key,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Data       any       `json:"data,omitempty"`
}

// InsightsProgressData is the payload of EventInsightsProgress.
type InsightsProgressData struct {
	Settled int `json:"settled"`
	Total   int `json:"total"`
}

// NewInsightsProgressEvent creates a progress event for one session.
func NewInsightsProgressEvent(sessionKey string, settled, total int) Event {
	return Event{
		Type:       EventInsightsProgress,
		SessionKey: sessionKey,
		Timestamp:  time.Now(),
		Data:       InsightsProgressData{Settled: settled, Total: total},
	}
}

// NewFeedbackUpdatedEvent creates a feedback change event.
func NewFeedbackUpdatedEvent(sessionKey string, rec *domain.FeedbackRecord) Event {
	return Event{
		Type:       EventFeedbackUpdated,
		SessionKey: sessionKey,
		Timestamp:  time.Now(),
		Data:       rec,
	}
}

// NewViewChangedEvent creates a view invalidation event.
func NewViewChangedEvent(sessionKey string) Event {
	return Event{
		Type:       EventViewChanged,
		SessionKey: sessionKey,
		Timestamp:  time.Now(),
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{Type: EventHeartbeat, Timestamp: time.Now()}
}
