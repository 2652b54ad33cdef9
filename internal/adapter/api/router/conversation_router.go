package router

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/handler"
)

func SetupConversationRouter(v1 *echo.Group) {
	conversationHandler := handler.GetConversationHandler()

	conversations := v1.Group("/conversations")
	conversations.POST("", conversationHandler.Create)
	conversations.GET("", conversationHandler.List)
	conversations.POST("/:id/messages", conversationHandler.SendMessage)
	conversations.GET("/:id/messages", conversationHandler.Messages)
	conversations.PUT("/:id/read", conversationHandler.MarkRead)
	conversations.DELETE("/:id", conversationHandler.Hide)
}
