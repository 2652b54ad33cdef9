package handler

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/middleware"
	"marketsync/internal/domain/entity"
	"marketsync/internal/usecase"
	"marketsync/pkg/errors"
)

var (
	membershipHandler   *MembershipHandler
	itemHandler         *ItemHandler
	boostHandler        *BoostHandler
	conversationHandler *ConversationHandler
	notificationHandler *NotificationHandler
)

func Setup(
	membershipUseCase *usecase.MembershipUseCase,
	itemUseCase *usecase.ItemUseCase,
	boostUseCase *usecase.BoostUseCase,
	conversationUseCase *usecase.ConversationUseCase,
	notificationUseCase *usecase.NotificationUseCase,
) {
	membershipHandler = NewMembershipHandler(membershipUseCase)
	itemHandler = NewItemHandler(itemUseCase)
	boostHandler = NewBoostHandler(boostUseCase)
	conversationHandler = NewConversationHandler(conversationUseCase)
	notificationHandler = NewNotificationHandler(notificationUseCase)
}

func GetMembershipHandler() *MembershipHandler {
	return membershipHandler
}

func GetItemHandler() *ItemHandler {
	return itemHandler
}

func GetBoostHandler() *BoostHandler {
	return boostHandler
}

func GetConversationHandler() *ConversationHandler {
	return conversationHandler
}

func GetNotificationHandler() *NotificationHandler {
	return notificationHandler
}

func currentUser(c echo.Context) (string, error) {
	uid, ok := middleware.UID(c)
	if !ok {
		return "", errors.Unauthorized("Authentication required", nil)
	}
	return uid, nil
}

// itemRef reads the :kind and :id path parameters.
func itemRef(c echo.Context) (entity.ItemRef, error) {
	kind, err := entity.ParseItemKind(c.Param("kind"))
	if err != nil {
		return entity.ItemRef{}, errors.BadRequest(err.Error(), err)
	}
	id := c.Param("id")
	if id == "" {
		return entity.ItemRef{}, errors.BadRequest("Item ID is required", nil)
	}
	return entity.ItemRef{Kind: kind, ID: id}, nil
}
