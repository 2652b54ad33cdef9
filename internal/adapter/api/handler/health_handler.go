package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HubStats is the websocket hub view exposed on the health endpoint.
type HubStats interface {
	ConnectedClients() int
	ActiveSubscriptions() int
}

type HealthHandler struct {
	backend string
	hub     HubStats
}

var healthHandler *HealthHandler

func NewHealthHandler(backend string, hub HubStats) *HealthHandler {
	return &HealthHandler{
		backend: backend,
		hub:     hub,
	}
}

func SetupHealthHandler(backend string, hub HubStats) {
	healthHandler = NewHealthHandler(backend, hub)
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	body := map[string]interface{}{
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"backend": h.backend,
	}
	if h.hub != nil {
		body["ws_clients"] = h.hub.ConnectedClients()
		body["ws_subscriptions"] = h.hub.ActiveSubscriptions()
	}
	return c.JSON(http.StatusOK, body)
}
