package model

import (
	"time"
)

// ConversationMessage is one archived turn in a trip's conversation history.
type ConversationMessage struct {
	Role      string    `json:"role"` // "user" or "ai"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the archived chat history the planning service keeps per trip.
type Conversation struct {
	ID        string                `json:"_id"`
	TripID    string                `json:"trip_id,omitempty"`
	UserID    string                `json:"user_id"`
	CreatedAt time.Time             `json:"created_at"`
	Messages  []ConversationMessage `json:"messages"`
}
