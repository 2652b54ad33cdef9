package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetCursorParams(t *testing.T) {
	tests := []struct {
		query  string
		cursor string
		limit  int
	}{
		{"", "", 20},
		{"?limit=5&cursor=abc", "abc", 5},
		{"?limit=500", "", 20},
		{"?limit=-1", "", 20},
		{"?limit=x", "", 20},
	}

	e := echo.New()
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
		c := e.NewContext(req, httptest.NewRecorder())

		got := GetCursorParams(c, 20, 100)
		assert.Equal(t, tt.cursor, got.Cursor, tt.query)
		assert.Equal(t, tt.limit, got.Limit, tt.query)
	}
}
