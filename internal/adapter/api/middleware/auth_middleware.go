package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"sellnext/internal/domain/entity"
	"sellnext/pkg/response"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

type AuthMiddleware struct {
	authenticator Authenticator
}

func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
	}
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller under "uid" and "user".
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := m.authenticator.Authenticate(c.Request().Context(), BearerToken(c))
		if err != nil {
			return response.Error(c, err)
		}

		c.Set("uid", user.ID)
		c.Set("user", user)
		return next(c)
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
