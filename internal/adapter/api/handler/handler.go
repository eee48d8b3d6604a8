package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"sellnext/pkg/errors"
)

// Handlers groups every HTTP handler so main wires them in one place.
type Handlers struct {
	Auth      *AuthHandler
	Product   *ProductHandler
	Favorite  *FavoriteHandler
	Message   *MessageHandler
	Upload    *UploadHandler
	WebSocket *WebSocketHandler
	Health    *HealthHandler
}

// currentUserID returns the id stored by the auth middleware.
func currentUserID(c echo.Context) string {
	uid, _ := c.Get("uid").(string)
	return uid
}

// bindAndValidate decodes the request body and runs the struct validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.BadRequest("Invalid request body", err)
	}
	return c.Validate(req)
}

func queryFloat(c echo.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, errors.BadRequest(name+" must be a non-negative number", err)
	}
	return &v, nil
}
