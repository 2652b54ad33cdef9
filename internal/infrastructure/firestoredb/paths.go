package firestoredb

import (
	"cloud.google.com/go/firestore"

	"marketsync/internal/domain/entity"
)

const (
	CollectionUsers         = "users"
	CollectionConversations = "conversations"
	CollectionMessages      = "messages"
	CollectionNotifications = "notifications"
)

func Item(client *firestore.Client, ref entity.ItemRef) *firestore.DocumentRef {
	return client.Collection(ref.Kind.Collection()).Doc(ref.ID)
}

// UserSub returns users/{uid}/{sub}.
func UserSub(client *firestore.Client, userID, sub string) *firestore.CollectionRef {
	return client.Collection(CollectionUsers).Doc(userID).Collection(sub)
}

func Membership(client *firestore.Client, userID string, rel entity.Relation, itemID string) *firestore.DocumentRef {
	return UserSub(client, userID, rel.Subcollection()).Doc(itemID)
}

func Conversation(client *firestore.Client, id string) *firestore.DocumentRef {
	return client.Collection(CollectionConversations).Doc(id)
}

func Messages(client *firestore.Client, conversationID string) *firestore.CollectionRef {
	return Conversation(client, conversationID).Collection(CollectionMessages)
}

func Notifications(client *firestore.Client, userID string) *firestore.CollectionRef {
	return UserSub(client, userID, CollectionNotifications)
}
