package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"marketsync/internal/usecase"
	"marketsync/pkg/errors"
	"marketsync/pkg/response"
)

type BoostHandler struct {
	boostUseCase *usecase.BoostUseCase
}

func NewBoostHandler(boostUseCase *usecase.BoostUseCase) *BoostHandler {
	return &BoostHandler{
		boostUseCase: boostUseCase,
	}
}

type startBoostRequest struct {
	DurationMinutes int `json:"duration_minutes" validate:"required,min=1"`
}

func (h *BoostHandler) Start(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}
	ref, err := itemRef(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req startBoostRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	stats, err := h.boostUseCase.Start(c.Request().Context(), userID, ref, time.Duration(req.DurationMinutes)*time.Minute)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, stats)
}

func (h *BoostHandler) Stats(c echo.Context) error {
	ref, err := itemRef(c)
	if err != nil {
		return response.Error(c, err)
	}

	stats, err := h.boostUseCase.Stats(c.Request().Context(), ref)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, stats)
}
