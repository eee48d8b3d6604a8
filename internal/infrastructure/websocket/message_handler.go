package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"sellnext/internal/infrastructure/ratelimit"
	"sellnext/pkg/logger"
)

// Client -> server events
const (
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventSendMessage       = "send_message"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
)

// Server -> client events
const (
	EventNewMessage          = "new_message"
	EventMessageNotification = "message_notification"
	EventUserTyping          = "user_typing"
	EventUserStoppedTyping   = "user_stopped_typing"
	EventError               = "error"
)

const (
	previewLength    = 50
	directoryTimeout = 5 * time.Second
)

// WSMessage is the frame exchanged in both directions.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type ConversationData struct {
	ConversationID string `json:"conversation_id"`
}

type SendMessageData struct {
	ConversationID  string `json:"conversation_id"`
	Content         string `json:"content"`
	MessageType     string `json:"message_type,omitempty"`
	MessageID       string `json:"message_id,omitempty"`
	ClientMessageID string `json:"client_message_id,omitempty"`
}

type NewMessageData struct {
	ConversationID  string `json:"conversation_id"`
	MessageID       string `json:"message_id,omitempty"`
	ClientMessageID string `json:"client_message_id,omitempty"`
	SenderID        string `json:"sender_id"`
	SenderName      string `json:"sender_name"`
	Content         string `json:"content"`
	MessageType     string `json:"message_type"`
	Timestamp       string `json:"timestamp"`
}

type NotificationData struct {
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	SenderName     string `json:"sender_name"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
}

type TypingData struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	UserName       string `json:"user_name,omitempty"`
}

type ErrorData struct {
	Error string `json:"error"`
}

// HandleClientMessage dispatches one inbound frame. Nothing here is
// persisted; the REST API owns message storage.
func (m *Manager) HandleClientMessage(client *Client, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Debug("WebSocket: invalid frame from client %s: %v", client.ID, err)
		m.sendError(client, "Invalid message format")
		return
	}

	switch msg.Type {
	case EventJoinConversation:
		m.handleJoinConversation(client, msg.Data)
	case EventLeaveConversation:
		m.handleLeaveConversation(client, msg.Data)
	case EventSendMessage:
		m.handleSendMessage(client, msg.Data)
	case EventTypingStart:
		m.handleTyping(client, msg.Data, true)
	case EventTypingStop:
		m.handleTyping(client, msg.Data, false)
	default:
		logger.Debug("WebSocket: unknown message type %q from client %s", msg.Type, client.ID)
		m.sendError(client, "Unknown message type")
	}
}

func (m *Manager) handleJoinConversation(client *Client, data json.RawMessage) {
	var payload ConversationData
	if err := decodeData(data, &payload); err != nil || payload.ConversationID == "" {
		m.sendError(client, "Missing conversation_id")
		return
	}

	if _, ok := m.otherParticipant(payload.ConversationID, client.UserID); !ok {
		m.sendError(client, "Not authorized to join this conversation")
		return
	}

	m.Join(client, ConversationRoom(payload.ConversationID))
	logger.Debug("WebSocket: user %s joined conversation %s", client.UserID, payload.ConversationID)
}

func (m *Manager) handleLeaveConversation(client *Client, data json.RawMessage) {
	var payload ConversationData
	if err := decodeData(data, &payload); err != nil || payload.ConversationID == "" {
		m.sendError(client, "Missing conversation_id")
		return
	}
	m.Leave(client, ConversationRoom(payload.ConversationID))
}

func (m *Manager) handleSendMessage(client *Client, data json.RawMessage) {
	var payload SendMessageData
	if err := decodeData(data, &payload); err != nil {
		m.sendError(client, "Invalid send message format")
		return
	}
	content := strings.TrimSpace(payload.Content)
	if payload.ConversationID == "" || content == "" {
		m.sendError(client, "Missing required fields")
		return
	}

	receiverID, ok := m.otherParticipant(payload.ConversationID, client.UserID)
	if !ok {
		m.sendError(client, "Not authorized to send messages in this conversation")
		return
	}

	messageType := payload.MessageType
	if messageType == "" {
		messageType = "text"
	}
	timestamp := m.timestamp()

	m.broadcast(ConversationRoom(payload.ConversationID), EventNewMessage, NewMessageData{
		ConversationID:  payload.ConversationID,
		MessageID:       payload.MessageID,
		ClientMessageID: payload.ClientMessageID,
		SenderID:        client.UserID,
		SenderName:      client.UserName,
		Content:         content,
		MessageType:     messageType,
		Timestamp:       timestamp,
	}, client)

	if receiverID != "" {
		m.broadcast(UserRoom(receiverID), EventMessageNotification, NotificationData{
			ConversationID: payload.ConversationID,
			SenderID:       client.UserID,
			SenderName:     client.UserName,
			Content:        Preview(content),
			Timestamp:      timestamp,
		}, client)
	}
}

func (m *Manager) handleTyping(client *Client, data json.RawMessage, typing bool) {
	var payload ConversationData
	if err := decodeData(data, &payload); err != nil || payload.ConversationID == "" {
		m.sendError(client, "Missing conversation_id")
		return
	}

	room := ConversationRoom(payload.ConversationID)
	if !m.InRoom(client, room) {
		m.sendError(client, "Join the conversation first")
		return
	}

	// stop events always pass so indicators never stick
	if typing && m.limiter != nil {
		if allowed, _ := m.limiter.Allow(client.UserID, ratelimit.ActionTyping); !allowed {
			return
		}
	}

	event := EventUserStoppedTyping
	body := TypingData{ConversationID: payload.ConversationID, UserID: client.UserID}
	if typing {
		event = EventUserTyping
		body.UserName = client.UserName
	}
	m.broadcast(room, event, body, client)
}

// otherParticipant reports the conversation partner of userID, and false
// when userID does not take part or the conversation cannot be loaded.
func (m *Manager) otherParticipant(conversationID, userID string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
	defer cancel()

	participants, err := m.directory.Participants(ctx, conversationID)
	if err != nil {
		logger.Debug("WebSocket: participants of %s: %v", conversationID, err)
		return "", false
	}

	member := false
	other := ""
	for _, p := range participants {
		if p == userID {
			member = true
		} else {
			other = p
		}
	}
	return other, member
}

func (m *Manager) broadcast(room, event string, data interface{}, except *Client) {
	payload, err := json.Marshal(WSMessage{Type: event, Data: data, Timestamp: m.timestamp()})
	if err != nil {
		logger.Error("WebSocket: marshal %s: %v", event, err)
		return
	}
	m.BroadcastToRoom(room, payload, except)
}

func (m *Manager) sendError(client *Client, message string) {
	payload, err := json.Marshal(WSMessage{
		Type:      EventError,
		Data:      ErrorData{Error: message},
		Timestamp: m.timestamp(),
	})
	if err != nil {
		return
	}
	m.SendToClient(client, payload)
}

func (m *Manager) timestamp() string {
	return m.now().UTC().Format(time.RFC3339)
}

func decodeData(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(data, v)
}

// Preview shortens message content for notifications.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewLength]) + "..."
}
