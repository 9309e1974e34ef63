package amqp

import (
	"encoding/json"
	"time"
)

// RefreshMessage asks consumers to reconcile their local mirror against the
// remote store. It carries no bill data: the consumer always re-fetches the
// full collection, so a lost or duplicated message is harmless.
type RefreshMessage struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRefreshMessage(reason string) *RefreshMessage {
	return &RefreshMessage{
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
