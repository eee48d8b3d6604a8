package client

import (
	"context"
	"encoding/json"

	"sellnext/pkg/logger"
)

const messagePageSize = 50

// Messenger ties the REST client, the gateway socket and the messaging state
// together. Durable operations go through REST; the socket only carries
// hints.
type Messenger struct {
	api   *APIClient
	state *MessagingState
}

func NewMessenger(api *APIClient, state *MessagingState) *Messenger {
	return &Messenger{api: api, state: state}
}

func (m *Messenger) State() *MessagingState {
	return m.state
}

// Connect dials the gateway with the API client's token and stores the
// socket in the state.
func (m *Messenger) Connect(ctx context.Context) (*Socket, error) {
	socket, err := DialSocket(ctx, SocketURL(m.api.BaseURL()), m.api.Token())
	if err != nil {
		return nil, err
	}
	m.state.SetSocket(socket)
	return socket, nil
}

// Refresh reloads the conversation list and the unread total from REST.
func (m *Messenger) Refresh(ctx context.Context) error {
	conversations, err := m.api.ListConversations(ctx)
	if err != nil {
		return err
	}
	m.state.SetConversations(conversations)

	total, err := m.api.UnreadCount(ctx)
	if err != nil {
		return err
	}
	m.state.SetUnreadTotal(total)
	return nil
}

// Open loads the newest messages of a conversation, which also marks them
// read on the server, and joins its socket room.
func (m *Messenger) Open(ctx context.Context, conversationID string) error {
	if previous := m.state.OpenConversation(); previous != "" && previous != conversationID {
		m.Close()
	}
	m.state.Open(conversationID)

	page, err := m.api.ListMessages(ctx, conversationID, 1, messagePageSize)
	if err != nil {
		return err
	}
	m.state.ReplaceMessages(conversationID, page.Messages)

	if socket := m.state.Socket(); socket != nil {
		if err := socket.JoinConversation(conversationID); err != nil {
			logger.Warn("Messenger: join %s: %v", conversationID, err)
		}
	}
	return nil
}

// Close leaves the open conversation's room.
func (m *Messenger) Close() {
	conversationID := m.state.OpenConversation()
	if conversationID == "" {
		return
	}
	if socket := m.state.Socket(); socket != nil {
		_ = socket.TypingStop(conversationID)
		_ = socket.LeaveConversation(conversationID)
	}
	m.state.Close()
}

// Send appends an optimistic placeholder, stores the message over REST and
// announces it on the socket with the same client message id.
func (m *Messenger) Send(ctx context.Context, conversationID, receiverID, content string) (*Message, error) {
	pending := m.state.BeginSend(conversationID, receiverID, content, "text")

	stored, _, err := m.api.SendMessage(ctx, SendMessageRequest{
		ConversationID:  conversationID,
		ReceiverID:      receiverID,
		Content:         content,
		MessageType:     pending.MessageType,
		ClientMessageID: pending.ClientMessageID,
	})
	if err != nil {
		m.state.FailSend(conversationID, pending.ClientMessageID)
		return nil, err
	}
	m.state.ConfirmSend(conversationID, pending.ClientMessageID, stored)

	if socket := m.state.Socket(); socket != nil {
		err := socket.SendMessage(SocketMessage{
			ConversationID:  conversationID,
			Content:         stored.Content,
			MessageType:     stored.MessageType,
			MessageID:       stored.ID,
			ClientMessageID: pending.ClientMessageID,
		})
		if err != nil {
			logger.Warn("Messenger: announce %s: %v", stored.ID, err)
		}
	}
	return stored, nil
}

func (m *Messenger) StartTyping(conversationID string) error {
	if socket := m.state.Socket(); socket != nil && m.state.OpenConversation() == conversationID {
		return socket.TypingStart(conversationID)
	}
	return nil
}

func (m *Messenger) StopTyping(conversationID string) error {
	if socket := m.state.Socket(); socket != nil {
		return socket.TypingStop(conversationID)
	}
	return nil
}

// Run applies socket events to the state until ctx is done or the socket
// closes.
func (m *Messenger) Run(ctx context.Context) error {
	socket := m.state.Socket()
	if socket == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-socket.Events():
			if !ok {
				return socket.Err()
			}
			m.HandleEvent(event)
		}
	}
}

// HandleEvent applies one gateway event.
func (m *Messenger) HandleEvent(event Event) {
	switch event.Type {
	case EventNewMessage:
		var data NewMessageEvent
		if decode(event, &data) {
			m.state.ApplyIncoming(data.Message())
		}

	case EventMessageNotification:
		var data NotificationEvent
		if decode(event, &data) {
			m.state.ApplyNotification(data)
		}

	case EventUserTyping, EventUserStoppedTyping:
		var data TypingEvent
		if decode(event, &data) {
			m.state.SetTyping(data.ConversationID, data.UserID, event.Type == EventUserTyping)
		}

	case EventError:
		var data ErrorEvent
		if decode(event, &data) {
			logger.Warn("Messenger: gateway error: %s", data.Error)
		}
	}
}

func decode(event Event, into interface{}) bool {
	if err := json.Unmarshal(event.Data, into); err != nil {
		logger.Debug("Messenger: malformed %s event: %v", event.Type, err)
		return false
	}
	return true
}
