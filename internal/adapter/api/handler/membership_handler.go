package handler

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/domain/entity"
	"marketsync/internal/usecase"
	"marketsync/pkg/response"
	"marketsync/pkg/utils"
)

type MembershipHandler struct {
	membershipUseCase *usecase.MembershipUseCase
}

func NewMembershipHandler(membershipUseCase *usecase.MembershipUseCase) *MembershipHandler {
	return &MembershipHandler{
		membershipUseCase: membershipUseCase,
	}
}

func (h *MembershipHandler) ToggleFavorite(c echo.Context) error {
	return h.toggle(c, entity.RelationFavorite)
}

func (h *MembershipHandler) ToggleCart(c echo.Context) error {
	return h.toggle(c, entity.RelationCart)
}

func (h *MembershipHandler) toggle(c echo.Context, rel entity.Relation) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}
	ref, err := itemRef(c)
	if err != nil {
		return response.Error(c, err)
	}

	result, err := h.membershipUseCase.Toggle(c.Request().Context(), userID, ref, rel)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *MembershipHandler) Status(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}
	ref, err := itemRef(c)
	if err != nil {
		return response.Error(c, err)
	}

	status, err := h.membershipUseCase.Status(c.Request().Context(), userID, ref)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, status)
}

func (h *MembershipHandler) ListFavorites(c echo.Context) error {
	return h.list(c, entity.RelationFavorite)
}

func (h *MembershipHandler) ListCart(c echo.Context) error {
	return h.list(c, entity.RelationCart)
}

func (h *MembershipHandler) list(c echo.Context, rel entity.Relation) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	params := utils.GetCursorParams(c, 50, 200)
	items, err := h.membershipUseCase.List(c.Request().Context(), userID, rel, params.Limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, items)
}
