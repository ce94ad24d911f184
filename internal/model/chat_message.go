package model

import "time"

// MessageType distinguishes one-to-one messages from admin broadcasts.
type MessageType string

const (
	MessageDirect    MessageType = "direct"
	MessageBroadcast MessageType = "broadcast"
)

// ChatMessage is an immutable realtime message.  Type is broadcast
// exactly when ReceiverID is nil.
//
// Fields:
//
//	ID         – primary key identifier.
//	SenderID   – author of the message.
//	ReceiverID – recipient for direct messages, nil for broadcasts.
//	Message    – message text.
//	Type       – direct or broadcast.
//	CreatedAt  – creation timestamp.
type ChatMessage struct {
	ID         uint64      `json:"id"`                    // chat_messages.id
	SenderID   uint64      `json:"sender_id"`             // chat_messages.sender_id
	ReceiverID *uint64     `json:"receiver_id,omitempty"` // chat_messages.receiver_id (nullable)
	Message    string      `json:"message"`               // chat_messages.message
	Type       MessageType `json:"type"`                  // chat_messages.type
	CreatedAt  time.Time   `json:"created_at"`            // chat_messages.created_at
}
