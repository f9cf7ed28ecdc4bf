package amqp

import (
	"encoding/json"
	"time"
)

// SyncCompletedMessage announces that the upstream sync pipeline finished a
// run. Years lists the report years whose provider data changed; an empty
// list means every cached year is out of date.
type SyncCompletedMessage struct {
	RunID      string    `json:"runId"`
	Years      []int     `json:"years,omitempty"`
	FinishedAt time.Time `json:"finishedAt"`
}

// NewSyncCompletedMessage creates a sync-completed message for the given run
func NewSyncCompletedMessage(runID string, years []int) *SyncCompletedMessage {
	return &SyncCompletedMessage{
		RunID:      runID,
		Years:      years,
		FinishedAt: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SyncCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncCompletedMessageFromJSON creates a message from JSON bytes
func SyncCompletedMessageFromJSON(data []byte) (*SyncCompletedMessage, error) {
	var msg SyncCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
