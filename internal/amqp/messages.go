package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RowSyncMessage asks the worker to copy one locally stored row to the
// spreadsheet. The worker reads the row itself; the message carries only its id.
type RowSyncMessage struct {
	MessageID string    `json:"message_id"`
	ID        int64     `json:"id"`
	Partition string    `json:"partition"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRowSyncMessage creates a sync message with a fresh message id
func NewRowSyncMessage(id int64, partition string) *RowSyncMessage {
	return &RowSyncMessage{
		MessageID: uuid.NewString(),
		ID:        id,
		Partition: partition,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RowSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RowSyncMessageFromJSON decodes a message body
func RowSyncMessageFromJSON(data []byte) (*RowSyncMessage, error) {
	var msg RowSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
