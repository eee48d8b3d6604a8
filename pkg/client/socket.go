package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Socket events
const (
	EventJoinConversation    = "join_conversation"
	EventLeaveConversation   = "leave_conversation"
	EventSendMessage         = "send_message"
	EventTypingStart         = "typing_start"
	EventTypingStop          = "typing_stop"
	EventNewMessage          = "new_message"
	EventMessageNotification = "message_notification"
	EventUserTyping          = "user_typing"
	EventUserStoppedTyping   = "user_stopped_typing"
	EventError               = "error"
)

const (
	socketWriteWait  = 10 * time.Second
	socketEventQueue = 64
)

// Event is a frame received from the gateway.
type Event struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

type NewMessageEvent struct {
	ConversationID  string `json:"conversation_id"`
	MessageID       string `json:"message_id"`
	ClientMessageID string `json:"client_message_id"`
	SenderID        string `json:"sender_id"`
	SenderName      string `json:"sender_name"`
	Content         string `json:"content"`
	MessageType     string `json:"message_type"`
	Timestamp       string `json:"timestamp"`
}

// Message converts the hint into a message for MessagingState.
func (e NewMessageEvent) Message() *Message {
	created, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		created = time.Now().UTC()
	}
	return &Message{
		ID:              e.MessageID,
		ConversationID:  e.ConversationID,
		SenderID:        e.SenderID,
		Content:         e.Content,
		MessageType:     e.MessageType,
		ClientMessageID: e.ClientMessageID,
		CreatedAt:       created,
		State:           StateSent,
	}
}

type NotificationEvent struct {
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	SenderName     string `json:"sender_name"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
}

type TypingEvent struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	UserName       string `json:"user_name,omitempty"`
}

type ErrorEvent struct {
	Error string `json:"error"`
}

type outboundFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type conversationPayload struct {
	ConversationID string `json:"conversation_id"`
}

// SocketMessage announces a stored message to the conversation room.
type SocketMessage struct {
	ConversationID  string `json:"conversation_id"`
	Content         string `json:"content"`
	MessageType     string `json:"message_type,omitempty"`
	MessageID       string `json:"message_id,omitempty"`
	ClientMessageID string `json:"client_message_id,omitempty"`
}

// Socket is a gateway connection. Received frames are delivered on Events,
// which is closed when the connection ends.
type Socket struct {
	conn   *websocket.Conn
	events chan Event

	writeMutex sync.Mutex
	closeOnce  sync.Once
	done       chan struct{}
	err        error
}

// DialSocket opens the gateway at wsURL (ws:// or wss://). The token goes in
// the handshake's Authorization header, never in the URL.
func DialSocket(ctx context.Context, wsURL, token string) (*Socket, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("socket url: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("socket handshake: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("socket dial: %w", err)
	}

	s := &Socket{
		conn:   conn,
		events: make(chan Event, socketEventQueue),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// SocketURL derives the gateway URL from the REST base URL.
func SocketURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://") + "/ws"
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://") + "/ws"
	default:
		return baseURL + "/ws"
	}
}

func (s *Socket) Events() <-chan Event {
	return s.events
}

// Done is closed once the connection is gone.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

func (s *Socket) readLoop() {
	defer close(s.events)
	defer s.shutdown(nil)

	for {
		var event Event
		if err := s.conn.ReadJSON(&event); err != nil {
			s.shutdown(err)
			return
		}
		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}
}

func (s *Socket) JoinConversation(conversationID string) error {
	return s.write(EventJoinConversation, conversationPayload{ConversationID: conversationID})
}

func (s *Socket) LeaveConversation(conversationID string) error {
	return s.write(EventLeaveConversation, conversationPayload{ConversationID: conversationID})
}

func (s *Socket) SendMessage(msg SocketMessage) error {
	return s.write(EventSendMessage, msg)
}

func (s *Socket) TypingStart(conversationID string) error {
	return s.write(EventTypingStart, conversationPayload{ConversationID: conversationID})
}

func (s *Socket) TypingStop(conversationID string) error {
	return s.write(EventTypingStop, conversationPayload{ConversationID: conversationID})
}

func (s *Socket) write(eventType string, data interface{}) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	select {
	case <-s.done:
		return fmt.Errorf("socket closed")
	default:
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
	return s.conn.WriteJSON(outboundFrame{Type: eventType, Data: data})
}

// Close sends a close frame and releases the connection.
func (s *Socket) Close() error {
	s.writeMutex.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(socketWriteWait))
	s.writeMutex.Unlock()

	s.shutdown(nil)
	return nil
}

// Err reports why the connection ended, nil after a normal close.
func (s *Socket) Err() error {
	<-s.done
	return s.err
}

func (s *Socket) shutdown(err error) {
	s.closeOnce.Do(func() {
		if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			s.err = err
		}
		close(s.done)
		_ = s.conn.Close()
	})
}
