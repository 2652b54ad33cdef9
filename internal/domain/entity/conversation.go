package entity

import (
	"sort"
	"strings"
	"time"
)

// Conversation is the two-party inbox document. Its id is derived from the sorted
// participant pair so that each pair has at most one conversation.
type Conversation struct {
	ID                 string               `json:"id" firestore:"-"`
	Participants       []string             `json:"participants" firestore:"participants"`
	VisibleTo          []string             `json:"visible_to" firestore:"visibleTo"`
	LastMessage        string               `json:"last_message" firestore:"lastMessage"`
	LastTimestamp      time.Time            `json:"last_timestamp" firestore:"lastTimestamp"`
	UnreadCounts       map[string]int64     `json:"unread_counts" firestore:"unreadCounts"`
	LastReadTimestamps map[string]time.Time `json:"last_read_timestamps" firestore:"lastReadTimestamps"`
	CreatedAt          time.Time            `json:"created_at" firestore:"createdAt"`
}

func ConversationID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "_")
}

// NewConversation builds the initial document for a pair, both sides read at now.
func NewConversation(a, b string, now time.Time) *Conversation {
	pair := []string{a, b}
	sort.Strings(pair)
	return &Conversation{
		ID:                 ConversationID(a, b),
		Participants:       pair,
		VisibleTo:          []string{pair[0], pair[1]},
		UnreadCounts:       map[string]int64{a: 0, b: 0},
		LastReadTimestamps: map[string]time.Time{a: now, b: now},
		LastTimestamp:      now,
		CreatedAt:          now,
	}
}

func (c *Conversation) HasParticipant(userID string) bool {
	return containsString(c.Participants, userID)
}

func (c *Conversation) IsVisibleTo(userID string) bool {
	return containsString(c.VisibleTo, userID)
}

// Recipient returns the other participant of the pair.
func (c *Conversation) Recipient(senderID string) string {
	for _, p := range c.Participants {
		if p != senderID {
			return p
		}
	}
	return ""
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
