package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeOffer  = "offer"
	MessageTypeSystem = "system"
)

const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

const MaxMessageLength = 1000

var messageNamespace = uuid.MustParse("b2c4e7a9-31f0-4d6b-8e25-7a9c0d1f4e63")

type Offer struct {
	Amount float64 `json:"amount" firestore:"amount"`
	Status string  `json:"status" firestore:"status"` // pending, accepted, declined
}

type Message struct {
	ID              string     `json:"id" firestore:"id"`
	ConversationID  string     `json:"conversation_id" firestore:"conversationId"`
	SenderID        string     `json:"sender_id" firestore:"senderId"`
	ReceiverID      string     `json:"receiver_id" firestore:"receiverId"`
	Content         string     `json:"content" firestore:"content"`
	Type            string     `json:"message_type" firestore:"type"`
	ImageURL        string     `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	Offer           *Offer     `json:"offer,omitempty" firestore:"offer,omitempty"`
	IsRead          bool       `json:"is_read" firestore:"isRead"`
	ReadAt          *time.Time `json:"read_at,omitempty" firestore:"readAt,omitempty"`
	Status          string     `json:"status" firestore:"status"`
	ClientMessageID string     `json:"client_message_id,omitempty" firestore:"clientMessageId,omitempty"`
	CreatedAt       time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time  `json:"updated_at" firestore:"updatedAt"`
}

// MessageID returns the id a message is stored under. Messages carrying a
// client message id get a deterministic id so a retried send resolves to the
// same record.
func MessageID(conversationID, senderID, clientMessageID string) string {
	if clientMessageID == "" {
		return uuid.New().String()
	}
	return uuid.NewSHA1(messageNamespace, []byte(conversationID+":"+senderID+":"+clientMessageID)).String()
}

// MarkRead flips the read state. It reports false when the message was already read.
func (m *Message) MarkRead(at time.Time) bool {
	if m.IsRead {
		return false
	}
	m.IsRead = true
	m.ReadAt = &at
	m.Status = MessageStatusRead
	m.UpdatedAt = at
	return true
}

func (m *Message) LastMessageSummary() *LastMessageSummary {
	if m == nil {
		return nil
	}
	return &LastMessageSummary{
		ID:          m.ID,
		Content:     m.Content,
		SenderID:    m.SenderID,
		MessageType: m.Type,
		CreatedAt:   m.CreatedAt,
	}
}

type MessageView struct {
	*Message
	Sender   *UserSummary `json:"sender,omitempty"`
	Receiver *UserSummary `json:"receiver,omitempty"`
}
