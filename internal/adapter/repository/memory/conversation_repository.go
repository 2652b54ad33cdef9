package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
)

type conversationRepository struct {
	db *DB
}

func NewConversationRepository(db *DB) repository.ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) CreateIfAbsent(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if existing, ok := r.db.conversations[conv.ID]; ok {
		return cloneConversation(existing), false, nil
	}
	r.db.conversations[conv.ID] = cloneConversation(conv)
	r.db.commit()
	return cloneConversation(conv), true, nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	conv, ok := r.db.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return cloneConversation(conv), nil
}

func (r *conversationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Conversation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.inbox(userID, limit), nil
}

// inbox assumes mu is held.
func (r *conversationRepository) inbox(userID string, limit int) []*entity.Conversation {
	var convs []*entity.Conversation
	for _, conv := range r.db.conversations {
		if conv.IsVisibleTo(userID) {
			convs = append(convs, cloneConversation(conv))
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].LastTimestamp.After(convs[j].LastTimestamp)
	})
	if limit > 0 && len(convs) > limit {
		convs = convs[:limit]
	}
	return convs
}

func (r *conversationRepository) AppendMessage(ctx context.Context, msg *entity.Message, recipientID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	conv, ok := r.db.conversations[msg.ConversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	ts := r.db.serverTime()
	msg.Timestamp = ts
	stored := *msg
	r.db.messages[conv.ID] = append(r.db.messages[conv.ID], &stored)

	conv.LastMessage = msg.Text
	conv.LastTimestamp = ts
	for _, p := range conv.Participants {
		if !conv.IsVisibleTo(p) {
			conv.VisibleTo = append(conv.VisibleTo, p)
		}
	}
	if conv.UnreadCounts == nil {
		conv.UnreadCounts = make(map[string]int64)
	}
	conv.UnreadCounts[recipientID]++
	r.db.commit()
	return nil
}

func (r *conversationRepository) ListMessages(ctx context.Context, conversationID string, after *entity.Cursor, limit int) ([]*entity.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var msgs []*entity.Message
	for _, m := range r.db.messages[conversationID] {
		if after != nil && !after.After(m.Timestamp, m.ID) {
			continue
		}
		c := *m
		msgs = append(msgs, &c)
		if limit > 0 && len(msgs) == limit {
			break
		}
	}
	return msgs, nil
}

func (r *conversationRepository) ListMessagesBefore(ctx context.Context, conversationID string, before *entity.Cursor, limit int) ([]*entity.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	all := r.db.messages[conversationID]
	var msgs []*entity.Message
	for i := len(all) - 1; i >= 0; i-- {
		m := all[i]
		if before != nil && !before.Before(m.Timestamp, m.ID) {
			continue
		}
		c := *m
		msgs = append(msgs, &c)
		if limit > 0 && len(msgs) == limit {
			break
		}
	}
	slices.Reverse(msgs)
	return msgs, nil
}

func (r *conversationRepository) MarkRead(ctx context.Context, conversationID, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	conv, ok := r.db.conversations[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	if conv.UnreadCounts == nil {
		conv.UnreadCounts = make(map[string]int64)
	}
	if conv.LastReadTimestamps == nil {
		conv.LastReadTimestamps = make(map[string]time.Time)
	}
	conv.UnreadCounts[userID] = 0
	conv.LastReadTimestamps[userID] = r.db.serverTime()
	r.db.commit()
	return nil
}

func (r *conversationRepository) Hide(ctx context.Context, conversationID, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	conv, ok := r.db.conversations[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	visible := conv.VisibleTo[:0]
	for _, u := range conv.VisibleTo {
		if u != userID {
			visible = append(visible, u)
		}
	}
	conv.VisibleTo = visible
	r.db.commit()
	return nil
}

func (r *conversationRepository) WatchInbox(ctx context.Context, userID string, limit int, fn func([]*entity.Conversation, error)) repository.Subscription {
	return r.db.watch(ctx, func() {
		r.db.mu.Lock()
		convs := r.inbox(userID, limit)
		r.db.mu.Unlock()
		fn(convs, nil)
	})
}

func (r *conversationRepository) WatchMessages(ctx context.Context, conversationID string, limit int, fn func([]*entity.Message, error)) repository.Subscription {
	return r.db.watch(ctx, func() {
		r.db.mu.Lock()
		all := r.db.messages[conversationID]
		if limit > 0 && len(all) > limit {
			all = all[len(all)-limit:]
		}
		msgs := make([]*entity.Message, len(all))
		for i, m := range all {
			c := *m
			msgs[i] = &c
		}
		r.db.mu.Unlock()
		fn(msgs, nil)
	})
}
