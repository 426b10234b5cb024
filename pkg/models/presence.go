package models

// TypingFact records that a user is typing in a conversation. It is never
// persisted.
type TypingFact struct {
	UserID          string `json:"user_id"`
	UserDisplayName string `json:"user_display_name"`
	ConversationID  string `json:"conversation_id"`
	StartedAtMillis int64  `json:"started_at_millis"`
}
