package handler

import (
	"github.com/labstack/echo/v4"

	"sellnext/internal/usecase"
	"sellnext/pkg/response"
	"sellnext/pkg/utils"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 100
)

type MessageHandler struct {
	conversationUseCase *usecase.ConversationUseCase
}

func NewMessageHandler(conversationUseCase *usecase.ConversationUseCase) *MessageHandler {
	return &MessageHandler{
		conversationUseCase: conversationUseCase,
	}
}

type createConversationRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
	ProductID     string `json:"product_id"`
}

type sendMessageRequest struct {
	ConversationID  string   `json:"conversation_id" validate:"required"`
	Content         string   `json:"content" validate:"required"`
	MessageType     string   `json:"message_type" validate:"omitempty,oneof=text image offer system"`
	ImageURL        string   `json:"image_url" validate:"omitempty,max=500"`
	OfferAmount     *float64 `json:"offer_amount" validate:"omitempty,gte=0"`
	ReceiverID      string   `json:"receiver_id"`
	ClientMessageID string   `json:"client_message_id" validate:"omitempty,max=64"`
}

func (h *MessageHandler) ListConversations(c echo.Context) error {
	conversations, err := h.conversationUseCase.ListConversations(c.Request().Context(), currentUserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"conversations": conversations})
}

func (h *MessageHandler) GetOrCreateConversation(c echo.Context) error {
	var req createConversationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.conversationUseCase.GetOrCreateConversation(c.Request().Context(), currentUserID(c), req.ParticipantID, req.ProductID)
	if err != nil {
		return response.Error(c, err)
	}

	if result.Created {
		return response.Created(c, "Conversation created", result)
	}
	return response.Success(c, result)
}

func (h *MessageHandler) GetMessages(c echo.Context) error {
	pagination := utils.GetPaginationParams(c, defaultMessageLimit, maxMessageLimit)

	page, err := h.conversationUseCase.ListMessages(
		c.Request().Context(),
		currentUserID(c),
		c.Param("conversationId"),
		pagination.Page,
		pagination.PageSize,
	)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, page)
}

func (h *MessageHandler) ArchiveConversation(c echo.Context) error {
	if err := h.conversationUseCase.ArchiveConversation(c.Request().Context(), currentUserID(c), c.Param("conversationId")); err != nil {
		return response.Error(c, err)
	}
	return response.SuccessWithMessage(c, "Conversation archived", nil)
}

func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.conversationUseCase.SendMessage(c.Request().Context(), currentUserID(c), usecase.SendMessageInput{
		ConversationID:  req.ConversationID,
		Content:         req.Content,
		MessageType:     req.MessageType,
		ImageURL:        req.ImageURL,
		OfferAmount:     req.OfferAmount,
		ReceiverID:      req.ReceiverID,
		ClientMessageID: req.ClientMessageID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	if result.Duplicate {
		return response.SuccessWithMessage(c, "Message already sent", result)
	}
	return response.Created(c, "Message sent successfully", result)
}

func (h *MessageHandler) MarkMessageRead(c echo.Context) error {
	message, err := h.conversationUseCase.MarkMessageRead(c.Request().Context(), currentUserID(c), c.Param("messageId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.SuccessWithMessage(c, "Message marked as read", map[string]interface{}{"message": message})
}

func (h *MessageHandler) UnreadCount(c echo.Context) error {
	count, err := h.conversationUseCase.UnreadCount(c.Request().Context(), currentUserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{"unread_count": count})
}
