package entity

import (
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationMessage           NotificationType = "message"
	NotificationBoosted           NotificationType = "boosted"
	NotificationBoostExpired      NotificationType = "boost_expired"
	NotificationRentInvitation    NotificationType = "rent_invitation"
	NotificationProductReview     NotificationType = "product_review"
	NotificationShipment          NotificationType = "shipment"
	NotificationShopApproved      NotificationType = "shop_approved"
	NotificationShopDisapproved   NotificationType = "shop_disapproved"
	NotificationProductSold       NotificationType = "product_sold"
	NotificationSellerReview      NotificationType = "seller_review"
	NotificationProductOutOfStock NotificationType = "product_out_of_stock"
	NotificationInvitation        NotificationType = "invitation"
	NotificationGeneral           NotificationType = "general"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationMessage, NotificationBoosted, NotificationBoostExpired,
		NotificationRentInvitation, NotificationProductReview, NotificationShipment,
		NotificationShopApproved, NotificationShopDisapproved, NotificationProductSold,
		NotificationSellerReview, NotificationProductOutOfStock, NotificationInvitation,
		NotificationGeneral:
		return true
	}
	return false
}

// UserCreatable reports whether a client may send this type to another user.
// Everything else is produced by the server or by event ingestion.
func (t NotificationType) UserCreatable() bool {
	switch t {
	case NotificationInvitation, NotificationRentInvitation, NotificationGeneral:
		return true
	}
	return false
}

func ParseNotificationType(s string) (NotificationType, error) {
	t := NotificationType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown notification type %q", s)
	}
	return t, nil
}

// Notification lives under users/{uid}/notifications and is owned by that user.
type Notification struct {
	ID             string           `json:"id" firestore:"-"`
	UserID         string           `json:"user_id" firestore:"-"`
	Type           NotificationType `json:"type" firestore:"type"`
	Title          string           `json:"title,omitempty" firestore:"title,omitempty"`
	Body           string           `json:"body,omitempty" firestore:"body,omitempty"`
	ItemID         string           `json:"item_id,omitempty" firestore:"itemId,omitempty"`
	ItemKind       ItemKind         `json:"item_kind,omitempty" firestore:"itemKind,omitempty"`
	ConversationID string           `json:"conversation_id,omitempty" firestore:"conversationId,omitempty"`
	SenderID       string           `json:"sender_id,omitempty" firestore:"senderId,omitempty"`
	IsRead         bool             `json:"is_read" firestore:"isRead"`
	Timestamp      time.Time        `json:"timestamp" firestore:"timestamp,serverTimestamp"`
}
