package domain

import "time"

// Event is a best-effort telemetry event (auth outcomes, HTTP requests).
// OrgID is empty for events that happen before a tenant is known.
type Event struct {
	OrgID     string    `json:"org_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	Metadata  []byte    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
