package handler

import (
	"encoding/json"
	"strconv"

	"github.com/labstack/echo/v4"

	"marketsync/internal/domain/entity"
	"marketsync/internal/usecase"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
	"marketsync/pkg/response"
)

type ItemHandler struct {
	itemUseCase *usecase.ItemUseCase
}

func NewItemHandler(itemUseCase *usecase.ItemUseCase) *ItemHandler {
	return &ItemHandler{
		itemUseCase: itemUseCase,
	}
}

type createItemRequest struct {
	Title   string          `json:"title" validate:"required,max=200"`
	Price   float64         `json:"price" validate:"gte=0"`
	Details json.RawMessage `json:"details" validate:"required"`
}

type impressionsRequest struct {
	Items []entity.ItemRef `json:"items" validate:"required,min=1,max=100,dive"`
}

func decodeDetails(kind entity.ItemKind, raw json.RawMessage) (entity.ItemDetails, error) {
	var (
		details entity.ItemDetails
		err     error
	)
	switch kind {
	case entity.KindProduct:
		var d entity.ProductDetails
		err = json.Unmarshal(raw, &d)
		details = d
	case entity.KindProperty:
		var d entity.PropertyDetails
		err = json.Unmarshal(raw, &d)
		details = d
	case entity.KindCar:
		var d entity.CarDetails
		err = json.Unmarshal(raw, &d)
		details = d
	default:
		return nil, errors.BadRequest("unknown item kind "+string(kind), nil)
	}
	if err != nil {
		return nil, errors.BadRequest("Invalid item details", err)
	}
	return details, nil
}

func (h *ItemHandler) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}
	kind, err := entity.ParseItemKind(c.Param("kind"))
	if err != nil {
		return response.Error(c, errors.BadRequest(err.Error(), err))
	}

	var req createItemRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	details, err := decodeDetails(kind, req.Details)
	if err != nil {
		return response.Error(c, err)
	}

	item, err := h.itemUseCase.Create(c.Request().Context(), userID, &entity.Item{
		Kind:    kind,
		Title:   req.Title,
		Price:   req.Price,
		Details: details,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, item)
}

func (h *ItemHandler) Get(c echo.Context) error {
	ref, err := itemRef(c)
	if err != nil {
		return response.Error(c, err)
	}

	item, err := h.itemUseCase.Get(c.Request().Context(), ref)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, item)
}

// List reads ?only_boosted=&min_price=&max_price=&sort=&limit= into a market filter.
func (h *ItemHandler) List(c echo.Context) error {
	kind, err := entity.ParseItemKind(c.Param("kind"))
	if err != nil {
		return response.Error(c, errors.BadRequest(err.Error(), err))
	}

	var opts []entity.MarketFilterOption
	if v := c.QueryParam("only_boosted"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return response.Error(c, errors.BadRequest("only_boosted must be a boolean", err))
		}
		opts = append(opts, entity.WithOnlyBoosted(b))
	}
	minPrice, err := floatParam(c, "min_price")
	if err != nil {
		return response.Error(c, err)
	}
	maxPrice, err := floatParam(c, "max_price")
	if err != nil {
		return response.Error(c, err)
	}
	if minPrice > 0 || maxPrice > 0 {
		opts = append(opts, entity.WithPriceRange(minPrice, maxPrice))
	}
	if sort := c.QueryParam("sort"); sort != "" {
		opts = append(opts, entity.WithSort(sort))
	}
	if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		opts = append(opts, entity.WithLimit(limit))
	}

	filter, err := entity.NewMarketFilter(kind, opts...)
	if err != nil {
		return response.Error(c, errors.BadRequest(err.Error(), err))
	}

	items, err := h.itemUseCase.List(c.Request().Context(), filter)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, items)
}

func floatParam(c echo.Context, name string) (float64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, errors.BadRequest(name+" must be a non-negative number", err)
	}
	return f, nil
}

// RecordClick is best-effort telemetry: store failures are logged and the
// request still answers 202.
func (h *ItemHandler) RecordClick(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}
	ref, err := itemRef(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.itemUseCase.RecordClick(c.Request().Context(), ref, userID); err != nil {
		if errors.Is(err, "BAD_REQUEST") {
			return response.Error(c, err)
		}
		logger.Warn("click not recorded", "item", ref.String(), "user", userID, "error", err)
	}

	return response.Accepted(c, nil)
}

func (h *ItemHandler) RecordImpressions(c echo.Context) error {
	var req impressionsRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.itemUseCase.RecordImpressions(c.Request().Context(), req.Items); err != nil {
		if errors.Is(err, "BAD_REQUEST") {
			return response.Error(c, err)
		}
		logger.Warn("impressions not recorded", "count", len(req.Items), "error", err)
	}

	return response.Accepted(c, map[string]int{"recorded": len(req.Items)})
}
