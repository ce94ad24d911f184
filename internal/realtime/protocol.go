package realtime

import (
	"encoding/json"
	"time"
)

// Event names on the wire.
const (
	EventDirectMessage = "direct_message"
	EventBroadcast     = "broadcast"
	EventError         = "error"
)

// Envelope is the frame for every websocket message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// DirectIn is the payload of an inbound direct_message.
type DirectIn struct {
	ToUserID uint64 `json:"toUserId"`
	Message  string `json:"message"`
}

// BroadcastIn is the payload of an inbound broadcast.
type BroadcastIn struct {
	Message string `json:"message"`
}

// MessageOut is delivered for both direct_message and broadcast.
type MessageOut struct {
	From      uint64    `json:"from"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorOut is sent only to the connection whose event failed.
type ErrorOut struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// encode renders an outbound frame.
func encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
