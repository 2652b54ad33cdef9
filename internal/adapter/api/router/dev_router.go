package router

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/handler"
	"marketsync/pkg/config"
)

func SetupDevRouter(e *echo.Echo, cfg *config.Config) {
	if !cfg.IsDevelopment() || cfg.StoreBackend != config.BackendMemory {
		return
	}
	devTokenHandler := handler.GetDevTokenHandler()

	e.GET("/_dev/token/:uid", devTokenHandler.GenerateUserToken)
}
