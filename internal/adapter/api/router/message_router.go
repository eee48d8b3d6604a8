package router

import (
	"github.com/labstack/echo/v4"

	"sellnext/internal/adapter/api/handler"
	"sellnext/internal/adapter/api/middleware"
)

// SetupMessageRouter sets up the conversation and message REST routes. The
// real-time side lives on /ws.
func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	messages := e.Group("/api/messages")
	messages.Use(authMiddleware.Authenticate)

	messages.GET("/conversations", messageHandler.ListConversations)
	messages.POST("/conversations", messageHandler.GetOrCreateConversation)
	messages.GET("/conversations/:conversationId", messageHandler.GetMessages)
	messages.DELETE("/conversations/:conversationId", messageHandler.ArchiveConversation)

	messages.POST("", messageHandler.SendMessage)
	messages.POST("/", messageHandler.SendMessage)
	messages.PUT("/:messageId/read", messageHandler.MarkMessageRead)
	messages.GET("/unread-count", messageHandler.UnreadCount)
}
