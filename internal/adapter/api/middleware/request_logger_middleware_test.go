package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"sellnext/pkg/logger"
)

func TestRequestLoggerRedactsToken(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stdout)

	e := echo.New()
	e.Use(RequestLogger())
	e.GET("/ws", func(c echo.Context) error {
		return c.NoContent(http.StatusUnauthorized)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token=eyJhbGciOiJIUzI1NiJ9.secret.sig&v=2", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	out := buf.String()
	assert.NotContains(t, out, "eyJhbGciOiJIUzI1NiJ9")
	assert.NotContains(t, out, "secret.sig")
	assert.Contains(t, out, "/ws?token=REDACTED")
	assert.Contains(t, out, "v=2")
}

func TestLoggableURI(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "no query", target: "/api/products", want: "/api/products"},
		{name: "plain query", target: "/api/products?page=2", want: "/api/products?page=2"},
		{name: "token", target: "/ws?token=abc", want: "/ws?token=REDACTED"},
		{name: "access token", target: "/ws?access_token=abc&x=1", want: "/ws?access_token=REDACTED&x=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.want, loggableURI(req.URL))
		})
	}
}
