package entity

import (
	"fmt"
	"time"
)

// Relation is a per-user membership kind whose size is mirrored on the item.
type Relation string

const (
	RelationFavorite Relation = "favorite"
	RelationCart     Relation = "cart"
)

func ParseRelation(s string) (Relation, error) {
	switch Relation(s) {
	case RelationFavorite, RelationCart:
		return Relation(s), nil
	}
	return "", fmt.Errorf("unknown relation %q", s)
}

// Subcollection is the user-owned collection holding the membership records.
func (r Relation) Subcollection() string {
	if r == RelationCart {
		return "cart"
	}
	return "favorites"
}

// CounterField is the item field that aggregates this relation.
func (r Relation) CounterField() string {
	if r == RelationCart {
		return FieldCartCount
	}
	return FieldFavoritesCount
}

// Membership is keyed by (user, item): users/{uid}/{favorites|cart}/{itemId}.
// The record's existence is the state; there is no boolean flag.
type Membership struct {
	UserID    string    `json:"user_id" firestore:"-"`
	ItemID    string    `json:"item_id" firestore:"itemId"`
	Kind      ItemKind  `json:"kind" firestore:"kind"`
	Relation  Relation  `json:"relation" firestore:"-"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

func (m *Membership) Ref() ItemRef {
	return ItemRef{Kind: m.Kind, ID: m.ItemID}
}
