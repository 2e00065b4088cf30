package models

import "time"

const (
	ConversationTypeDirect = "direct"
	ConversationTypeGroup  = "group"
)

type Conversation struct {
	ID            int64            `json:"id"`
	Type          string           `json:"type"`
	GroupName     *string          `json:"group_name,omitempty"`
	CreatedBy     *int64           `json:"created_by,omitempty"`
	LastMessage   *MessageSnapshot `json:"last_message,omitempty"`
	LastMessageAt time.Time        `json:"last_message_at"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// MessageSnapshot is the denormalized copy of the newest message kept on the
// conversation row, overwritten on every append.
type MessageSnapshot struct {
	ID        int64     `json:"id"`
	SenderID  int64     `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Participant struct {
	UserID      int64     `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url"`
	JoinedAt    time.Time `json:"joined_at"`
	SeenLast    bool      `json:"-"`
}

type ConversationSummary struct {
	Conversation
	Participants []Participant `json:"participants"`
	UnreadCount  int           `json:"unread_count"`
	SeenBy       []int64       `json:"seen_by"`
}

type ChatMessage struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
