package monitor

import "time"

// Status is a point-in-time snapshot of collaborator health.
type Status struct {
	PostgreSQL     bool      `json:"postgresql"`
	EventStream    bool      `json:"event_stream"`
	EventBuffer    bool      `json:"event_buffer"`
	BufferedEvents int       `json:"buffered_events"`
	LastCheck      time.Time `json:"last_check"`
}
