package handler

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/domain/entity"
	"marketsync/internal/usecase"
	"marketsync/pkg/errors"
	"marketsync/pkg/response"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

type createNotificationRequest struct {
	UserID         string `json:"user_id" validate:"required"`
	Type           string `json:"type" validate:"required"`
	Title          string `json:"title" validate:"max=200"`
	Body           string `json:"body" validate:"max=2000"`
	ItemID         string `json:"item_id"`
	ItemKind       string `json:"item_kind" validate:"omitempty,oneof=product property car"`
	ConversationID string `json:"conversation_id"`
}

// List returns one page and marks the unread notifications on it as read.
func (h *NotificationHandler) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	page, err := h.notificationUseCase.LoadPage(c.Request().Context(), userID, c.QueryParam("cursor"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, page.Items, page.NextCursor)
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	count, err := h.notificationUseCase.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int64{"count": count})
}

// Create sends a peer notification (invitation, rent_invitation, general)
// from the caller to user_id.
func (h *NotificationHandler) Create(c echo.Context) error {
	senderID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req createNotificationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	n := &entity.Notification{
		UserID:         req.UserID,
		Type:           entity.NotificationType(req.Type),
		Title:          req.Title,
		Body:           req.Body,
		ItemID:         req.ItemID,
		ItemKind:       entity.ItemKind(req.ItemKind),
		ConversationID: req.ConversationID,
	}
	if err := h.notificationUseCase.Send(c.Request().Context(), senderID, n); err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, n)
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.notificationUseCase.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Notification deleted"})
}
