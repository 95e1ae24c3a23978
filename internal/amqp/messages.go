package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a transaction mutation.
type EventType string

const (
	EventCreated EventType = "transaction.created"
	EventUpdated EventType = "transaction.updated"
	EventDeleted EventType = "transaction.deleted"
)

func (t EventType) Valid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	}
	return false
}

// TransactionEvent is a lightweight notification about a mutation.
// It carries only identifiers; consumers re-read the user's transactions.
type TransactionEvent struct {
	Type          EventType `json:"type"`
	UserID        string    `json:"userId"`
	TransactionID string    `json:"transactionId"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(t EventType, userID, transactionID string) *TransactionEvent {
	return &TransactionEvent{
		Type:          t,
		UserID:        userID,
		TransactionID: transactionID,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Type.Valid() {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.UserID == "" {
		return nil, fmt.Errorf("event without user id")
	}
	return &e, nil
}
