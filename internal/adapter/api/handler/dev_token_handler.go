package handler

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/infrastructure/firebase"
	"marketsync/pkg/errors"
	"marketsync/pkg/response"
)

// DevTokenHandler issues tokens for the development verifier. It is only
// mounted on the memory backend.
type DevTokenHandler struct{}

var devTokenHandler *DevTokenHandler

func SetupDevTokenHandler() {
	devTokenHandler = &DevTokenHandler{}
}

func GetDevTokenHandler() *DevTokenHandler {
	return devTokenHandler
}

func (h *DevTokenHandler) GenerateUserToken(c echo.Context) error {
	uid := c.Param("uid")
	token := firebase.DevToken(uid)
	if _, err := (firebase.DevTokenVerifier{}).VerifyToken(c.Request().Context(), token); err != nil {
		return response.Error(c, errors.BadRequest("Invalid user id", err))
	}

	return response.Success(c, map[string]string{
		"uid":   uid,
		"token": token,
	})
}
