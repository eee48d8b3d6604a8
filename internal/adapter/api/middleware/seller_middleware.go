package middleware

import (
	"github.com/labstack/echo/v4"

	"sellnext/internal/domain/entity"
	"sellnext/pkg/errors"
	"sellnext/pkg/response"
)

// SellerOnly lets through users whose account may list products. It must run
// after Authenticate.
func SellerOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get("user").(*entity.User)
		if !ok || user == nil {
			return response.Error(c, errors.Unauthorized("Authentication required", nil))
		}

		if !user.IsSeller {
			return response.Error(c, errors.Forbidden("Seller account required", nil))
		}

		return next(c)
	}
}
