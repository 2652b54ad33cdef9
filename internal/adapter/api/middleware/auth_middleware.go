package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"marketsync/pkg/errors"
	"marketsync/pkg/response"
)

const ContextKeyUID = "uid"

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		uid, err := m.verifier.VerifyToken(c.Request().Context(), token)
		if err != nil {
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		c.Set(ContextKeyUID, uid)
		return next(c)
	}
}

// UIDFromToken verifies a raw token, for transports that cannot carry headers.
func (m *AuthMiddleware) UIDFromToken(ctx context.Context, token string) (string, error) {
	return m.verifier.VerifyToken(ctx, token)
}

// UID returns the authenticated user id set by Authenticate.
func UID(c echo.Context) (string, bool) {
	uid, ok := c.Get(ContextKeyUID).(string)
	return uid, ok && uid != ""
}
