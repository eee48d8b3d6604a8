package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState() *MessagingState {
	s := NewMessagingState("me")
	s.SetConversations([]*Conversation{
		{ID: "c1", UnreadCount: 2, LastActivity: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "c2", UnreadCount: 1, LastActivity: time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)},
	})
	return s
}

func TestSetConversationsSumsUnread(t *testing.T) {
	s := newTestState()
	assert.Equal(t, 3, s.UnreadTotal())

	list := s.Conversations()
	require.Len(t, list, 2)
	assert.Equal(t, "c2", list[0].ID)
}

func TestOpenClearsUnread(t *testing.T) {
	s := newTestState()

	s.Open("c1")
	assert.Equal(t, "c1", s.OpenConversation())
	assert.Equal(t, 1, s.UnreadTotal())

	for _, c := range s.Conversations() {
		if c.ID == "c1" {
			assert.Zero(t, c.UnreadCount)
		}
	}
}

func TestSendLifecycle(t *testing.T) {
	s := newTestState()

	pending := s.BeginSend("c1", "them", "hello", "")
	assert.NotEmpty(t, pending.ClientMessageID)
	assert.Equal(t, StatePending, pending.State)
	assert.Equal(t, "text", pending.MessageType)

	s.ConfirmSend("c1", pending.ClientMessageID, &Message{
		ID:              "m1",
		ConversationID:  "c1",
		SenderID:        "me",
		Content:         "hello",
		ClientMessageID: pending.ClientMessageID,
		CreatedAt:       time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})

	messages := s.Messages("c1")
	require.Len(t, messages, 1)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, StateSent, messages[0].State)

	list := s.Conversations()
	assert.Equal(t, "c1", list[0].ID)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "hello", list[0].LastMessage.Content)
}

func TestFailSendAndDiscard(t *testing.T) {
	s := newTestState()

	pending := s.BeginSend("c1", "them", "hello", "text")
	s.FailSend("c1", pending.ClientMessageID)

	messages := s.Messages("c1")
	require.Len(t, messages, 1)
	assert.Equal(t, StateFailed, messages[0].State)

	s.DiscardFailed("c1", pending.ClientMessageID)
	assert.Empty(t, s.Messages("c1"))
}

func TestHintThenConfirmationYieldsOneMessage(t *testing.T) {
	s := newTestState()
	pending := s.BeginSend("c1", "them", "hello", "text")

	// another device of the same user relays the stored message first
	assert.False(t, s.ApplyIncoming(&Message{
		ID:              "m1",
		ConversationID:  "c1",
		SenderID:        "me",
		Content:         "hello",
		ClientMessageID: pending.ClientMessageID,
	}))

	s.ConfirmSend("c1", pending.ClientMessageID, &Message{
		ID:              "m1",
		ConversationID:  "c1",
		SenderID:        "me",
		Content:         "hello",
		ClientMessageID: pending.ClientMessageID,
	})

	messages := s.Messages("c1")
	require.Len(t, messages, 1)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, StateSent, messages[0].State)
}

func TestApplyIncomingDeduplicatesAndCountsUnread(t *testing.T) {
	s := newTestState()
	s.Open("c1")
	require.Equal(t, 1, s.UnreadTotal())

	msg := &Message{ID: "m1", ConversationID: "c2", SenderID: "them", Content: "hi"}
	assert.True(t, s.ApplyIncoming(msg))
	assert.False(t, s.ApplyIncoming(msg))
	assert.Len(t, s.Messages("c2"), 1)
	assert.Equal(t, 2, s.UnreadTotal())

	// the open conversation does not accumulate unread messages
	assert.True(t, s.ApplyIncoming(&Message{ID: "m2", ConversationID: "c1", SenderID: "them", Content: "yo"}))
	assert.Equal(t, 2, s.UnreadTotal())

	// own messages never count
	assert.True(t, s.ApplyIncoming(&Message{ID: "m3", ConversationID: "c2", SenderID: "me", Content: "ok"}))
	assert.Equal(t, 2, s.UnreadTotal())
}

func TestApplyNotification(t *testing.T) {
	s := newTestState()
	s.Open("c1")

	s.ApplyNotification(NotificationEvent{ConversationID: "c1", SenderID: "them"})
	assert.Equal(t, 1, s.UnreadTotal())

	s.ApplyNotification(NotificationEvent{ConversationID: "c2", SenderID: "them"})
	assert.Equal(t, 2, s.UnreadTotal())
}

func TestReplaceMessagesKeepsPendingPlaceholders(t *testing.T) {
	s := newTestState()
	confirmed := s.BeginSend("c1", "them", "first", "text")
	pending := s.BeginSend("c1", "them", "second", "text")

	s.ReplaceMessages("c1", []*Message{
		{ID: "m0", ConversationID: "c1", SenderID: "them", Content: "earlier"},
		{ID: "m1", ConversationID: "c1", SenderID: "me", Content: "first", ClientMessageID: confirmed.ClientMessageID},
	})

	messages := s.Messages("c1")
	require.Len(t, messages, 3)
	assert.Equal(t, "m0", messages[0].ID)
	assert.Equal(t, "m1", messages[1].ID)
	assert.Equal(t, pending.ClientMessageID, messages[2].ClientMessageID)
	assert.Equal(t, StatePending, messages[2].State)
}

func TestTypingSets(t *testing.T) {
	s := newTestState()

	s.SetTyping("c1", "u2", true)
	s.SetTyping("c1", "u1", true)
	s.SetTyping("c1", "u1", true)
	assert.Equal(t, []string{"u1", "u2"}, s.TypingUsers("c1"))
	assert.True(t, s.IsTyping("c1"))
	assert.False(t, s.IsTyping("c2"))

	s.SetTyping("c1", "u1", false)
	s.SetTyping("c1", "u2", false)
	assert.Empty(t, s.TypingUsers("c1"))
	assert.False(t, s.IsTyping("c1"))
}

func TestHandleEvent(t *testing.T) {
	s := newTestState()
	m := NewMessenger(NewAPIClient("http://localhost", nil), s)

	m.HandleEvent(Event{
		Type: EventNewMessage,
		Data: []byte(`{"conversation_id":"c2","message_id":"m9","sender_id":"them","content":"hey","message_type":"text","timestamp":"2024-01-01T12:00:00Z"}`),
	})
	messages := s.Messages("c2")
	require.Len(t, messages, 1)
	assert.Equal(t, "m9", messages[0].ID)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), messages[0].CreatedAt)
	assert.Equal(t, 4, s.UnreadTotal())

	m.HandleEvent(Event{Type: EventUserTyping, Data: []byte(`{"conversation_id":"c2","user_id":"them"}`)})
	assert.Equal(t, []string{"them"}, s.TypingUsers("c2"))

	m.HandleEvent(Event{Type: EventUserStoppedTyping, Data: []byte(`{"conversation_id":"c2","user_id":"them"}`)})
	assert.Empty(t, s.TypingUsers("c2"))

	m.HandleEvent(Event{Type: EventNewMessage, Data: []byte(`not json`)})
	assert.Len(t, s.Messages("c2"), 1)
}

func TestSocketURL(t *testing.T) {
	assert.Equal(t, "wss://api.example.com/ws", SocketURL("https://api.example.com"))
	assert.Equal(t, "ws://127.0.0.1:8080/ws", SocketURL("http://127.0.0.1:8080"))
}
