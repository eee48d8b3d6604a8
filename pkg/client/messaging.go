package client

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MessagingState holds the messaging view of one signed-in user. REST
// responses are authoritative; socket hints are merged into the same lists
// and de-duplicated by server id or client message id.
type MessagingState struct {
	mutex sync.RWMutex

	userID        string
	socket        *Socket
	conversations []*Conversation
	open          string
	messages      map[string][]*Message
	unreadTotal   int
	typing        map[string]map[string]struct{}
	now           func() time.Time
}

func NewMessagingState(userID string) *MessagingState {
	return &MessagingState{
		userID:   userID,
		messages: make(map[string][]*Message),
		typing:   make(map[string]map[string]struct{}),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MessagingState) UserID() string {
	return s.userID
}

func (s *MessagingState) SetSocket(socket *Socket) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.socket = socket
}

// Socket returns the current gateway connection, nil when offline.
func (s *MessagingState) Socket() *Socket {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.socket
}

// SetConversations installs the REST conversation list. The unread total is
// recomputed as the sum of the per-conversation counters.
func (s *MessagingState) SetConversations(conversations []*Conversation) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.conversations = make([]*Conversation, 0, len(conversations))
	total := 0
	for _, c := range conversations {
		copied := *c
		if copied.ID == s.open {
			copied.UnreadCount = 0
		}
		total += copied.UnreadCount
		s.conversations = append(s.conversations, &copied)
	}
	s.unreadTotal = total
}

func (s *MessagingState) SetUnreadTotal(total int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if total < 0 {
		total = 0
	}
	s.unreadTotal = total
}

func (s *MessagingState) UnreadTotal() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.unreadTotal
}

// Conversations returns copies ordered by last activity, newest first.
func (s *MessagingState) Conversations() []Conversation {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}

func (s *MessagingState) OpenConversation() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.open
}

// Open marks conversationID as the one on screen and clears its unread count.
func (s *MessagingState) Open(conversationID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.open = conversationID
	if c := s.conversationLocked(conversationID); c != nil {
		s.unreadTotal -= c.UnreadCount
		if s.unreadTotal < 0 {
			s.unreadTotal = 0
		}
		c.UnreadCount = 0
	}
}

func (s *MessagingState) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.open != "" {
		delete(s.typing, s.open)
	}
	s.open = ""
}

// BeginSend appends a pending placeholder and returns it. Its client message
// id is the key later used by ConfirmSend, FailSend and ApplyIncoming.
func (s *MessagingState) BeginSend(conversationID, receiverID, content, messageType string) Message {
	if messageType == "" {
		messageType = "text"
	}
	msg := &Message{
		ConversationID:  conversationID,
		SenderID:        s.userID,
		ReceiverID:      receiverID,
		Content:         content,
		MessageType:     messageType,
		ClientMessageID: uuid.New().String(),
		State:           StatePending,
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	msg.CreatedAt = s.now()
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	return *msg
}

// ConfirmSend replaces the placeholder with the stored message. When a socket
// hint or a REST refresh already delivered it, the copies are merged.
func (s *MessagingState) ConfirmSend(conversationID, clientMessageID string, stored *Message) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	confirmed := *stored
	confirmed.State = StateSent
	if confirmed.ClientMessageID == "" {
		confirmed.ClientMessageID = clientMessageID
	}

	list := s.messages[conversationID]
	kept := list[:0]
	placed := false
	for _, m := range list {
		if m.ClientMessageID == clientMessageID || (confirmed.ID != "" && m.ID == confirmed.ID) {
			if placed {
				continue
			}
			copied := confirmed
			kept = append(kept, &copied)
			placed = true
			continue
		}
		kept = append(kept, m)
	}
	if !placed {
		copied := confirmed
		kept = append(kept, &copied)
	}
	s.messages[conversationID] = kept
	s.touchLocked(conversationID, &confirmed)
}

// FailSend marks the placeholder as failed so it can be retried or dropped.
func (s *MessagingState) FailSend(conversationID, clientMessageID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, m := range s.messages[conversationID] {
		if m.ClientMessageID == clientMessageID && m.State == StatePending {
			m.State = StateFailed
		}
	}
}

// DiscardFailed drops a failed placeholder.
func (s *MessagingState) DiscardFailed(conversationID, clientMessageID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	list := s.messages[conversationID]
	kept := list[:0]
	for _, m := range list {
		if m.ClientMessageID == clientMessageID && m.State == StateFailed {
			continue
		}
		kept = append(kept, m)
	}
	s.messages[conversationID] = kept
}

// ApplyIncoming merges a message from a socket hint or a REST response. It
// reports whether the message was new. A new message from someone else in a
// conversation that is not open bumps that conversation's unread count and
// the total.
func (s *MessagingState) ApplyIncoming(incoming *Message) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	conversationID := incoming.ConversationID
	msg := *incoming
	if msg.State == "" {
		msg.State = StateSent
	}

	for i, m := range s.messages[conversationID] {
		sameID := msg.ID != "" && m.ID == msg.ID
		sameClientID := msg.ClientMessageID != "" && m.ClientMessageID == msg.ClientMessageID
		if !sameID && !sameClientID {
			continue
		}
		if m.State == StatePending || m.ID == "" {
			s.messages[conversationID][i] = &msg
		}
		return false
	}

	s.messages[conversationID] = append(s.messages[conversationID], &msg)
	s.touchLocked(conversationID, &msg)

	if msg.SenderID != s.userID && conversationID != s.open {
		s.bumpUnreadLocked(conversationID)
	}
	return true
}

// ApplyNotification records a message notification for a conversation whose
// messages are not streamed to this client. Notifications for the open
// conversation are ignored: its messages arrive as new_message events.
func (s *MessagingState) ApplyNotification(n NotificationEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if n.ConversationID == s.open || n.SenderID == s.userID {
		return
	}
	s.bumpUnreadLocked(n.ConversationID)
}

// ReplaceMessages installs an authoritative REST page. Placeholders the page
// does not contain yet are kept at the end.
func (s *MessagingState) ReplaceMessages(conversationID string, page []*Message) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	seen := make(map[string]struct{}, len(page))
	list := make([]*Message, 0, len(page))
	for _, m := range page {
		copied := *m
		copied.State = StateSent
		list = append(list, &copied)
		if copied.ClientMessageID != "" {
			seen[copied.ClientMessageID] = struct{}{}
		}
	}

	for _, m := range s.messages[conversationID] {
		if m.State != StatePending && m.State != StateFailed {
			continue
		}
		if _, ok := seen[m.ClientMessageID]; ok {
			continue
		}
		list = append(list, m)
	}
	s.messages[conversationID] = list
}

// Messages returns copies of the conversation's messages in display order.
func (s *MessagingState) Messages(conversationID string) []Message {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]Message, 0, len(s.messages[conversationID]))
	for _, m := range s.messages[conversationID] {
		out = append(out, *m)
	}
	return out
}

func (s *MessagingState) SetTyping(conversationID, userID string, typing bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	users := s.typing[conversationID]
	if typing {
		if users == nil {
			users = make(map[string]struct{})
			s.typing[conversationID] = users
		}
		users[userID] = struct{}{}
		return
	}

	delete(users, userID)
	if len(users) == 0 {
		delete(s.typing, conversationID)
	}
}

// TypingUsers returns the ids currently typing in the conversation, sorted.
func (s *MessagingState) TypingUsers(conversationID string) []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]string, 0, len(s.typing[conversationID]))
	for id := range s.typing[conversationID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *MessagingState) IsTyping(conversationID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.typing[conversationID]) > 0
}

func (s *MessagingState) conversationLocked(id string) *Conversation {
	for _, c := range s.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *MessagingState) bumpUnreadLocked(conversationID string) {
	if c := s.conversationLocked(conversationID); c != nil {
		c.UnreadCount++
	}
	s.unreadTotal++
}

func (s *MessagingState) touchLocked(conversationID string, m *Message) {
	c := s.conversationLocked(conversationID)
	if c == nil {
		return
	}
	c.LastMessage = &LastMessage{
		ID:        m.ID,
		Content:   m.Content,
		SenderID:  m.SenderID,
		CreatedAt: m.CreatedAt,
	}
	if m.CreatedAt.After(c.LastActivity) {
		c.LastActivity = m.CreatedAt
	}
}
