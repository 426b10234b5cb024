package models

import "time"

// MessageGroup is a run of consecutive messages rendered under one sender
// header.
type MessageGroup struct {
	SenderID          string    `json:"sender_id"`
	SenderDisplayName string    `json:"sender_display_name"`
	SenderAvatarRef   string    `json:"sender_avatar_ref,omitempty"`
	Messages          []Message `json:"messages"`
	FirstTimestamp    time.Time `json:"first_timestamp"`
}
