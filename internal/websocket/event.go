package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to the entity
type EventType string

const (
	EventTypeUpdated     EventType = "updated"
	EventTypeRefreshed   EventType = "refreshed"
	EventTypeInvalidated EventType = "invalidated"
	EventTypeCompleted   EventType = "completed"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeKPI      EntityType = "kpi"
	EntityTypeBillable EntityType = "billable"
	EntityTypeReport   EntityType = "report"
	EntityTypeCache    EntityType = "cache"
	EntityTypeSync     EntityType = "sync"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "kpi.updated"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "kpi"
	Payload   interface{} `json:"payload"`   // Event data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// KPIUpdated creates a kpi.updated event
func KPIUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeKPI, payload)
}

// BillableUpdated creates a billable.updated event
func BillableUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeBillable, payload)
}

// ReportRefreshed creates a report.refreshed event
func ReportRefreshed(payload interface{}) Event {
	return NewEvent(EventTypeRefreshed, EntityTypeReport, payload)
}

// CacheInvalidated creates a cache.invalidated event
func CacheInvalidated(payload interface{}) Event {
	return NewEvent(EventTypeInvalidated, EntityTypeCache, payload)
}

// SyncCompleted creates a sync.completed event
func SyncCompleted(payload interface{}) Event {
	return NewEvent(EventTypeCompleted, EntityTypeSync, payload)
}
