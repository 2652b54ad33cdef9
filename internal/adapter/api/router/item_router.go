package router

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/handler"
)

func SetupItemRouter(v1 *echo.Group) {
	itemHandler := handler.GetItemHandler()

	v1.GET("/items/:kind", itemHandler.List)
	v1.POST("/items/:kind", itemHandler.Create)
	v1.GET("/items/:kind/:id", itemHandler.Get)
	v1.POST("/items/:kind/:id/clicks", itemHandler.RecordClick)
	v1.POST("/impressions", itemHandler.RecordImpressions)
}
