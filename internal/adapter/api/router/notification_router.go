package router

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/handler"
)

func SetupNotificationRouter(v1 *echo.Group) {
	notificationHandler := handler.GetNotificationHandler()

	notifications := v1.Group("/notifications")
	notifications.GET("", notificationHandler.List)
	notifications.GET("/unread-count", notificationHandler.UnreadCount)
	notifications.POST("", notificationHandler.Create)
	notifications.DELETE("/:id", notificationHandler.Delete)
}
