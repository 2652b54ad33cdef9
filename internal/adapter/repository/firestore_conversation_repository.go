package repository

import (
	"context"
	"slices"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/internal/infrastructure/firestoredb"
	"marketsync/pkg/errors"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{client: client}
}

func decodeConversation(snap *firestore.DocumentSnapshot) (*entity.Conversation, error) {
	var conv entity.Conversation
	if err := snap.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conv.ID = snap.Ref.ID
	return &conv, nil
}

func decodeMessage(conversationID string, snap *firestore.DocumentSnapshot) (*entity.Message, error) {
	var msg entity.Message
	if err := snap.DataTo(&msg); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	msg.ID = snap.Ref.ID
	msg.ConversationID = conversationID
	return &msg, nil
}

func (r *firestoreConversationRepository) CreateIfAbsent(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	docRef := firestoredb.Conversation(r.client, conv.ID)

	var (
		stored  *entity.Conversation
		created bool
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false

		snap, err := tx.Get(docRef)
		if err == nil && snap.Exists() {
			stored, err = decodeConversation(snap)
			return err
		}
		if err != nil && !firestoredb.IsNotFound(err) {
			return err
		}

		created = true
		stored = conv
		return tx.Create(docRef, conv)
	})
	if err != nil {
		return nil, false, firestoredb.Translate(err, "Conversation")
	}
	return stored, created, nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	snap, err := firestoredb.Conversation(r.client, id).Get(ctx)
	if err != nil {
		return nil, firestoredb.Translate(err, "Conversation")
	}
	return decodeConversation(snap)
}

func (r *firestoreConversationRepository) inboxQuery(userID string, limit int) firestore.Query {
	return r.client.Collection(firestoredb.CollectionConversations).
		Where("visibleTo", "array-contains", userID).
		OrderBy("lastTimestamp", firestore.Desc).
		Limit(limit)
}

func (r *firestoreConversationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Conversation, error) {
	iter := r.inboxQuery(userID, limit).Documents(ctx)
	defer iter.Stop()

	var convs []*entity.Conversation
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, firestoredb.Translate(err, "Conversations")
		}
		conv, err := decodeConversation(snap)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

// AppendMessage commits the message and the parent summary together. The
// recipient's unread counter accumulates with a commutative increment, and
// both participants are made visible again so a hidden thread resurfaces.
func (r *firestoreConversationRepository) AppendMessage(ctx context.Context, msg *entity.Message, recipientID string) error {
	convRef := firestoredb.Conversation(r.client, msg.ConversationID)
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msgRef := firestoredb.Messages(r.client, msg.ConversationID).Doc(msg.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(convRef)
		if err != nil {
			return err
		}
		conv, err := decodeConversation(snap)
		if err != nil {
			return err
		}

		err = tx.Create(msgRef, map[string]interface{}{
			"senderId":  msg.SenderID,
			"text":      msg.Text,
			"timestamp": firestore.ServerTimestamp,
		})
		if err != nil {
			return err
		}

		participants := make([]interface{}, len(conv.Participants))
		for i, p := range conv.Participants {
			participants[i] = p
		}

		return tx.Update(convRef, []firestore.Update{
			{Path: "lastMessage", Value: msg.Text},
			{Path: "lastTimestamp", Value: firestore.ServerTimestamp},
			{Path: "visibleTo", Value: firestore.ArrayUnion(participants...)},
			{FieldPath: firestore.FieldPath{"unreadCounts", recipientID}, Value: firestore.Increment(1)},
		})
	})
	return firestoredb.Translate(err, "Conversation")
}

func (r *firestoreConversationRepository) ListMessages(ctx context.Context, conversationID string, after *entity.Cursor, limit int) ([]*entity.Message, error) {
	query := firestoredb.Messages(r.client, conversationID).
		OrderBy("timestamp", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)
	if after != nil {
		query = query.StartAfter(after.Timestamp, after.ID)
	}

	iter := query.Limit(limit).Documents(ctx)
	defer iter.Stop()

	var msgs []*entity.Message
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, firestoredb.Translate(err, "Messages")
		}
		msg, err := decodeMessage(conversationID, snap)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (r *firestoreConversationRepository) ListMessagesBefore(ctx context.Context, conversationID string, before *entity.Cursor, limit int) ([]*entity.Message, error) {
	query := firestoredb.Messages(r.client, conversationID).
		OrderBy("timestamp", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)
	if before != nil {
		query = query.StartAfter(before.Timestamp, before.ID)
	}

	iter := query.Limit(limit).Documents(ctx)
	defer iter.Stop()

	var msgs []*entity.Message
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, firestoredb.Translate(err, "Messages")
		}
		msg, err := decodeMessage(conversationID, snap)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	slices.Reverse(msgs)
	return msgs, nil
}

func (r *firestoreConversationRepository) MarkRead(ctx context.Context, conversationID, userID string) error {
	_, err := firestoredb.Conversation(r.client, conversationID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadCounts", userID}, Value: 0},
		{FieldPath: firestore.FieldPath{"lastReadTimestamps", userID}, Value: firestore.ServerTimestamp},
	})
	return firestoredb.Translate(err, "Conversation")
}

func (r *firestoreConversationRepository) Hide(ctx context.Context, conversationID, userID string) error {
	_, err := firestoredb.Conversation(r.client, conversationID).Update(ctx, []firestore.Update{
		{Path: "visibleTo", Value: firestore.ArrayRemove(userID)},
	})
	return firestoredb.Translate(err, "Conversation")
}

func (r *firestoreConversationRepository) WatchInbox(ctx context.Context, userID string, limit int, fn func([]*entity.Conversation, error)) repository.Subscription {
	return firestoredb.WatchQuery(ctx, r.inboxQuery(userID, limit), "Conversations", func(qs *firestore.QuerySnapshot, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		snaps, err := qs.Documents.GetAll()
		if err != nil {
			fn(nil, firestoredb.Translate(err, "Conversations"))
			return
		}

		convs := make([]*entity.Conversation, 0, len(snaps))
		for _, snap := range snaps {
			conv, err := decodeConversation(snap)
			if err != nil {
				fn(nil, err)
				return
			}
			convs = append(convs, conv)
		}
		fn(convs, nil)
	})
}

// WatchMessages follows the newest limit messages; each delivery is in
// chronological order.
func (r *firestoreConversationRepository) WatchMessages(ctx context.Context, conversationID string, limit int, fn func([]*entity.Message, error)) repository.Subscription {
	query := firestoredb.Messages(r.client, conversationID).
		OrderBy("timestamp", firestore.Desc).
		Limit(limit)

	return firestoredb.WatchQuery(ctx, query, "Messages", func(qs *firestore.QuerySnapshot, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		snaps, err := qs.Documents.GetAll()
		if err != nil {
			fn(nil, firestoredb.Translate(err, "Messages"))
			return
		}

		msgs := make([]*entity.Message, len(snaps))
		for i, snap := range snaps {
			msg, err := decodeMessage(conversationID, snap)
			if err != nil {
				fn(nil, err)
				return
			}
			msgs[len(snaps)-1-i] = msg
		}
		fn(msgs, nil)
	})
}
