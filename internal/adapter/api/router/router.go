package router

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/middleware"
)

// Setup mounts every REST route. All /v1 routes require a verified token.
func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	SetupHealthRouter(e)

	v1 := e.Group("/v1", authMiddleware.Authenticate)
	SetupItemRouter(v1)
	SetupMembershipRouter(v1)
	SetupBoostRouter(v1)
	SetupConversationRouter(v1)
	SetupNotificationRouter(v1)
}
