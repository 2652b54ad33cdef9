package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// CursorParams are the keyset paging inputs of a list request.
type CursorParams struct {
	Cursor string
	Limit  int
}

// GetCursorParams reads ?cursor= and ?limit=, falling back to defaultLimit when
// the limit is missing, malformed or above maxLimit.
func GetCursorParams(c echo.Context, defaultLimit, maxLimit int) CursorParams {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	return CursorParams{
		Cursor: c.QueryParam("cursor"),
		Limit:  limit,
	}
}
