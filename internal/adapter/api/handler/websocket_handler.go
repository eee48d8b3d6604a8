package handler

import (
	"net/http"
	"strings"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"sellnext/internal/adapter/api/middleware"
	"sellnext/internal/usecase"
	ws "sellnext/internal/infrastructure/websocket"
	"sellnext/pkg/logger"
	"sellnext/pkg/response"
)

type WebSocketHandler struct {
	wsManager   *ws.Manager
	authUseCase *usecase.AuthUseCase
	upgrader    gorillaws.Upgrader
}

func NewWebSocketHandler(wsManager *ws.Manager, authUseCase *usecase.AuthUseCase, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:   wsManager,
		authUseCase: authUseCase,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// HandleWebSocket authenticates the handshake before upgrading. The token
// comes from the "token" query parameter or the Authorization header.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token = middleware.BearerToken(c)
	}

	user, err := h.authUseCase.Authenticate(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the failure response
		logger.Warn("WebSocket upgrade failed for user %s: %v", user.ID, err)
		return nil
	}

	client := h.wsManager.ServeClient(conn, user.ID, user.FullName)
	logger.Info("WebSocket connected: user %s (client %s)", user.ID, client.ID)
	return nil
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(strings.TrimRight(a, "/"), origin) {
				return true
			}
		}
		return false
	}
}
