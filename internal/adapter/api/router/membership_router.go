package router

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/handler"
)

func SetupMembershipRouter(v1 *echo.Group) {
	membershipHandler := handler.GetMembershipHandler()

	v1.POST("/items/:kind/:id/favorite", membershipHandler.ToggleFavorite)
	v1.POST("/items/:kind/:id/cart", membershipHandler.ToggleCart)
	v1.GET("/items/:kind/:id/membership", membershipHandler.Status)

	me := v1.Group("/me")
	me.GET("/favorites", membershipHandler.ListFavorites)
	me.GET("/cart", membershipHandler.ListCart)
}
