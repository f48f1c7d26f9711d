package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item is one buffered event waiting for the stream to come back.
type Item struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Envelope  json.RawMessage `json:"envelope"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
