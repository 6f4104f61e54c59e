package events

import (
	"time"

	"github.com/spec-kit/data-collector/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSearchCompleted EventType = "search_completed"
	EventSearchFailed    EventType = "search_failed"
	EventTokenRefreshed  EventType = "token_refreshed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SearchFinishedPayload is carried by both search_completed and search_failed.
type SearchFinishedPayload struct {
	Filter      domain.SearchFilter  `json:"filter"`
	Outcome     domain.SearchOutcome `json:"outcome"`
	ResultCount int                  `json:"result_count"`
	Error       string               `json:"error,omitempty"`
	Duration    time.Duration        `json:"duration"`
	Cached      bool                 `json:"cached"`
}

// TokenRefreshedPayload describes a refresh forced by a 401 from the search endpoint.
type TokenRefreshedPayload struct {
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}
