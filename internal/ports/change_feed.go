package ports

import "time"

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent describes a committed write to a table.
type ChangeEvent struct {
	Table     string            `json:"table"`
	Type      ChangeType        `json:"type"`
	Record    map[string]string `json:"record"`
	Timestamp time.Time         `json:"timestamp"`
}

// ChangePublisher is implemented by anything that fans change events out to subscribers.
type ChangePublisher interface {
	Publish(event ChangeEvent)
}
