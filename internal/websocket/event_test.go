package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType_String(t *testing.T) {
	tests := []struct {
		name     string
		et       EventType
		expected string
	}{
		{"updated", EventTypeUpdated, "updated"},
		{"refreshed", EventTypeRefreshed, "refreshed"},
		{"invalidated", EventTypeInvalidated, "invalidated"},
		{"completed", EventTypeCompleted, "completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.et))
		})
	}
}

func TestEntityType_String(t *testing.T) {
	tests := []struct {
		name     string
		et       EntityType
		expected string
	}{
		{"kpi", EntityTypeKPI, "kpi"},
		{"billable", EntityTypeBillable, "billable"},
		{"report", EntityTypeReport, "report"},
		{"cache", EntityTypeCache, "cache"},
		{"sync", EntityTypeSync, "sync"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.et))
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"year":  2025,
		"month": "2025-03",
		"value": "5000",
	}

	before := time.Now()
	evt := NewEvent(EventTypeUpdated, EntityTypeKPI, payload)
	after := time.Now()

	assert.Equal(t, "kpi.updated", evt.Type)
	assert.Equal(t, EntityTypeKPI, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	payload := map[string]interface{}{
		"year":  float64(2025),
		"month": "2025-01",
		"value": "100.00",
	}

	evt := Event{
		Type:      "kpi.updated",
		Entity:    EntityTypeKPI,
		Payload:   payload,
		Timestamp: fixedTime,
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded Event
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, evt.Type, decoded.Type)
	assert.Equal(t, evt.Entity, decoded.Entity)
	assert.Equal(t, fixedTime.UTC(), decoded.Timestamp.UTC())

	// Payload should be preserved
	decodedPayload, ok := decoded.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2025), decodedPayload["year"])
	assert.Equal(t, "2025-01", decodedPayload["month"])
	assert.Equal(t, "100.00", decodedPayload["value"])
}

func TestEvent_ToJSON(t *testing.T) {
	payload := map[string]interface{}{
		"id": float64(42),
	}

	evt := NewEvent(EventTypeUpdated, EntityTypeBillable, payload)

	data, err := evt.ToJSON()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	// Verify it's valid JSON
	var decoded map[string]interface{}
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, "billable.updated", decoded["type"])
	assert.Equal(t, "billable", decoded["entity"])
	assert.NotNil(t, decoded["payload"])
	assert.NotNil(t, decoded["timestamp"])
}

func TestEvent_Helpers(t *testing.T) {
	payload := map[string]interface{}{
		"year":  float64(2025),
		"month": "2025-06",
	}

	t.Run("KPIUpdated", func(t *testing.T) {
		evt := KPIUpdated(payload)
		assert.Equal(t, "kpi.updated", evt.Type)
		assert.Equal(t, EntityTypeKPI, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})

	t.Run("BillableUpdated", func(t *testing.T) {
		evt := BillableUpdated(payload)
		assert.Equal(t, "billable.updated", evt.Type)
		assert.Equal(t, EntityTypeBillable, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})

	t.Run("ReportRefreshed", func(t *testing.T) {
		evt := ReportRefreshed(payload)
		assert.Equal(t, "report.refreshed", evt.Type)
		assert.Equal(t, EntityTypeReport, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})

	t.Run("CacheInvalidated", func(t *testing.T) {
		evt := CacheInvalidated(payload)
		assert.Equal(t, "cache.invalidated", evt.Type)
		assert.Equal(t, EntityTypeCache, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})

	t.Run("SyncCompleted", func(t *testing.T) {
		evt := SyncCompleted(payload)
		assert.Equal(t, "sync.completed", evt.Type)
		assert.Equal(t, EntityTypeSync, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})
}
