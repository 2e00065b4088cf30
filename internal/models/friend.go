package models

import "time"

type FriendRequest struct {
	ID         int64     `json:"id"`
	FromUserID int64     `json:"from_user_id"`
	ToUserID   int64     `json:"to_user_id"`
	Message    *string   `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Friendship is stored once per pair, with UserA ranked before UserB.
type Friendship struct {
	UserA     int64     `json:"user_a"`
	UserB     int64     `json:"user_b"`
	CreatedAt time.Time `json:"created_at"`
}

type SentFriendRequest struct {
	FriendRequest
	To PublicUser `json:"to"`
}

type ReceivedFriendRequest struct {
	FriendRequest
	From PublicUser `json:"from"`
}

type FriendRequestList struct {
	Sent     []SentFriendRequest     `json:"sent"`
	Received []ReceivedFriendRequest `json:"received"`
}
