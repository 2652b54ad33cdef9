package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConversationIDIsOrderIndependent(t *testing.T) {
	assert.Equal(t, ConversationID("alice", "bob"), ConversationID("bob", "alice"))
	assert.Equal(t, "alice_bob", ConversationID("bob", "alice"))
}

func TestNewConversationInitialState(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	c := NewConversation("bob", "alice", now)

	assert.Equal(t, "alice_bob", c.ID)
	assert.Equal(t, []string{"alice", "bob"}, c.Participants)
	assert.ElementsMatch(t, c.Participants, c.VisibleTo)
	assert.Equal(t, int64(0), c.UnreadCounts["alice"])
	assert.Equal(t, int64(0), c.UnreadCounts["bob"])
	assert.Equal(t, now, c.LastReadTimestamps["bob"])
	assert.Equal(t, "alice", c.Recipient("bob"))
	assert.True(t, c.HasParticipant("alice"))
	assert.False(t, c.HasParticipant("carol"))
}
