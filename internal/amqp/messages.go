package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LedgerSavedMessage announces that the ledger was persisted. It carries no
// ledger data: consumers reload the store to get the current state.
type LedgerSavedMessage struct {
	ID      string    `json:"id"`
	SavedAt time.Time `json:"saved_at"`
}

func NewLedgerSavedMessage(savedAt time.Time) *LedgerSavedMessage {
	return &LedgerSavedMessage{
		ID:      uuid.NewString(),
		SavedAt: savedAt.UTC(),
	}
}

func (m *LedgerSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSavedMessageFromJSON(data []byte) (*LedgerSavedMessage, error) {
	var msg LedgerSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
