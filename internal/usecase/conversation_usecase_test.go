package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsync/internal/adapter/repository/memory"
	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
)

type chatFixture struct {
	db            *memory.DB
	notifications repository.NotificationRepository
	uc            *ConversationUseCase
}

func newChatFixture(limiter RateLimiter) *chatFixture {
	clock := newTestClock()
	db := memory.NewDB(memory.WithClock(clock.Now))
	f := &chatFixture{db: db, notifications: memory.NewNotificationRepository(db)}
	f.uc = NewConversationUseCase(memory.NewConversationRepository(db), f.notifications, limiter, clock.Now, ConversationConfig{ListLimit: 10, PageSize: 2})
	return f
}

func TestEnsureConversationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(NoLimit)

	conv, created, err := f.uc.EnsureConversation(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "alice_bob", conv.ID)
	assert.Equal(t, int64(0), conv.UnreadCounts["alice"])
	assert.Equal(t, conv.CreatedAt, conv.LastReadTimestamps["bob"])

	again, created, err := f.uc.EnsureConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)

	_, _, err = f.uc.EnsureConversation(ctx, "alice", "alice")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestSendMessagesAccumulateUnreadUntilMarkRead(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(NoLimit)
	conv, _, err := f.uc.EnsureConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	var last *entity.Message
	for _, text := range []string{"hi", "are you there", "hello?"} {
		last, err = f.uc.SendMessage(ctx, conv.ID, "alice", text)
		require.NoError(t, err)
	}

	inbox, err := f.uc.List(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, int64(3), inbox[0].UnreadCounts["bob"])
	assert.Equal(t, int64(0), inbox[0].UnreadCounts["alice"])
	assert.Equal(t, "hello?", inbox[0].LastMessage)

	require.NoError(t, f.uc.MarkRead(ctx, conv.ID, "bob"))

	inbox, err = f.uc.List(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(0), inbox[0].UnreadCounts["bob"])
	assert.False(t, inbox[0].LastReadTimestamps["bob"].Before(last.Timestamp))
}

func TestSendMessageRejections(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(NoLimit)
	conv, _, err := f.uc.EnsureConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = f.uc.SendMessage(ctx, conv.ID, "mallory", "hi")
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	_, err = f.uc.SendMessage(ctx, conv.ID, "alice", "   ")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = f.uc.SendMessage(ctx, "ghost_conv", "alice", "hi")
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	limited := newChatFixture(denyAll{})
	conv, _, err = limited.uc.EnsureConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = limited.uc.SendMessage(ctx, conv.ID, "alice", "hi")
	assert.True(t, errors.Is(err, "TOO_MANY_REQUESTS"))
}

func TestSendMessageNotifiesRecipient(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(NoLimit)
	conv, _, err := f.uc.EnsureConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = f.uc.SendMessage(ctx, conv.ID, "alice", "ping")
	require.NoError(t, err)

	page, err := f.notifications.Page(ctx, "bob", nil, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, entity.NotificationMessage, page[0].Type)
	assert.Equal(t, conv.ID, page[0].ConversationID)
}

func TestHiddenConversationReturnsOnNewMessage(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(NoLimit)
	conv, _, err := f.uc.EnsureConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	require.NoError(t, f.uc.Hide(ctx, conv.ID, "bob"))
	inbox, err := f.uc.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, inbox)

	_, err = f.uc.SendMessage(ctx, conv.ID, "alice", "still there?")
	require.NoError(t, err)
	inbox, err = f.uc.List(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
}

func TestMessagesPaginate(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(NoLimit)
	conv, _, err := f.uc.EnsureConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	for _, text := range []string{"1", "2", "3"} {
		_, err := f.uc.SendMessage(ctx, conv.ID, "bob", text)
		require.NoError(t, err)
	}

	page, next, err := f.uc.Messages(ctx, conv.ID, "alice", "", 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "1", page[0].Text)
	require.NotEmpty(t, next)

	page, next, err = f.uc.Messages(ctx, conv.ID, "alice", next, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "3", page[0].Text)
	assert.Empty(t, next)

	_, _, err = f.uc.Messages(ctx, conv.ID, "alice", "%%%", 0)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, _, err = f.uc.Messages(ctx, conv.ID, "mallory", "", 0)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestOlderMessagesPageBackwards(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(NoLimit)
	conv, _, err := f.uc.EnsureConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	for _, text := range []string{"1", "2", "3", "4", "5"} {
		_, err := f.uc.SendMessage(ctx, conv.ID, "bob", text)
		require.NoError(t, err)
	}

	texts := func(msgs []*entity.Message) []string {
		var out []string
		for _, m := range msgs {
			out = append(out, m.Text)
		}
		return out
	}

	page, prev, err := f.uc.OlderMessages(ctx, conv.ID, "alice", "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "5"}, texts(page))
	require.NotEmpty(t, prev)

	page, prev, err = f.uc.OlderMessages(ctx, conv.ID, "alice", prev, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, texts(page))
	require.NotEmpty(t, prev)

	page, prev, err = f.uc.OlderMessages(ctx, conv.ID, "alice", prev, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, texts(page))
	assert.Empty(t, prev)

	_, _, err = f.uc.OlderMessages(ctx, conv.ID, "mallory", "", 0)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestSubscribeInboxMustBeStopped(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(NoLimit)
	conv, _, err := f.uc.EnsureConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	var unread atomic.Int64
	sub, err := f.uc.SubscribeInbox(ctx, "bob", func(convs []*entity.Conversation, err error) {
		if err == nil && len(convs) == 1 {
			unread.Store(convs[0].UnreadCounts["bob"])
		}
	})
	require.NoError(t, err)

	msgSub, err := f.uc.SubscribeMessages(ctx, conv.ID, "bob", func([]*entity.Message, error) {})
	require.NoError(t, err)
	assert.Equal(t, 2, f.db.ActiveWatchers())

	_, err = f.uc.SendMessage(ctx, conv.ID, "alice", "live")
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return unread.Load() == 1 }, time.Second, 5*time.Millisecond)

	sub.Stop()
	msgSub.Stop()
	assert.Equal(t, 0, f.db.ActiveWatchers())

	_, err = f.uc.SubscribeMessages(ctx, conv.ID, "mallory", func([]*entity.Message, error) {})
	assert.True(t, errors.Is(err, "FORBIDDEN"))
	assert.Equal(t, 0, f.db.ActiveWatchers())
}
