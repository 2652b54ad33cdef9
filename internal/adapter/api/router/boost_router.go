package router

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/handler"
)

func SetupBoostRouter(v1 *echo.Group) {
	boostHandler := handler.GetBoostHandler()

	v1.POST("/items/:kind/:id/boost", boostHandler.Start)
	v1.GET("/items/:kind/:id/boost", boostHandler.Stats)
}
