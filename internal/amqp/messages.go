package amqp

import (
	"encoding/json"
	"time"
)

// Operations carried by ListChanged
const (
	OpAppend = "append"
	OpImport = "import"
	OpDelete = "delete"
	OpClear  = "clear"
	OpResync = "resync"
)

// ListChanged announces that the Record List was rewritten. It carries no
// records; consumers reload the list from storage.
type ListChanged struct {
	Op        string    `json:"op"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewListChanged creates a message stamped with the current time
func NewListChanged(op string, count int) *ListChanged {
	return &ListChanged{
		Op:        op,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ListChanged) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ListChangedFromJSON creates a message from JSON bytes
func ListChangedFromJSON(data []byte) (*ListChanged, error) {
	var msg ListChanged
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
