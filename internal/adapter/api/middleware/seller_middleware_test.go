package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"sellnext/internal/domain/entity"
)

func TestSellerOnly(t *testing.T) {
	tests := []struct {
		name       string
		user       *entity.User
		wantStatus int
	}{
		{name: "seller", user: &entity.User{ID: "u1", IsSeller: true}, wantStatus: http.StatusNoContent},
		{name: "buyer only", user: &entity.User{ID: "u2", IsBuyer: true}, wantStatus: http.StatusForbidden},
		{name: "anonymous", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/products", nil), rec)
			if tt.user != nil {
				c.Set("user", tt.user)
			}

			h := SellerOnly(func(c echo.Context) error {
				return c.NoContent(http.StatusNoContent)
			})

			assert.NoError(t, h(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
