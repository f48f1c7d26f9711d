package domain

import "time"

// Event types emitted by the service.
const (
	EventUserCreated    = "user.created"
	EventUserUpdated    = "user.updated"
	EventUserDeleted    = "user.deleted"
	EventLoginSucceeded = "user.authentication.succeeded"
	EventLoginFailed    = "user.authentication.failed"
)

// EventSchemaVersion is bumped whenever an event payload changes shape.
const EventSchemaVersion = 1

// Event is the envelope published to the event side channel. Payloads carry
// public projections only, never password hashes.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Source      string    `json:"source"`
	SubmittedAt time.Time `json:"submitted_at"`
	Version     int       `json:"version"`
	Data        any       `json:"data"`
}
