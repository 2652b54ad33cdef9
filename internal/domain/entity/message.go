package entity

import "time"

// Message is immutable once written; messages are ordered by Timestamp ascending.
type Message struct {
	ID             string    `json:"id" firestore:"-"`
	ConversationID string    `json:"conversation_id" firestore:"-"`
	SenderID       string    `json:"sender_id" firestore:"senderId"`
	Text           string    `json:"text" firestore:"text"`
	Timestamp      time.Time `json:"timestamp" firestore:"timestamp"`
}
