package entity

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// conversationNamespace seeds the name-based ids of conversations so the same
// participant pair and product always map to the same id.
var conversationNamespace = uuid.MustParse("6f1d3c52-8a0e-4b7e-9c1a-2f5d7e3b9a44")

type Conversation struct {
	ID            string         `json:"id" firestore:"id"`
	Participants  []string       `json:"participants" firestore:"participants"`
	ProductID     string         `json:"product_id,omitempty" firestore:"productId,omitempty"`
	LastMessageID string         `json:"last_message_id,omitempty" firestore:"lastMessageId,omitempty"`
	LastActivity  time.Time      `json:"last_activity" firestore:"lastActivity"`
	IsActive      bool           `json:"is_active" firestore:"isActive"`
	UnreadCount   map[string]int `json:"unread_count" firestore:"unreadCount"`
	CreatedAt     time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time      `json:"updated_at" firestore:"updatedAt"`
}

// ConversationKey is the canonical (unordered pair, product) key of a
// conversation.
func ConversationKey(userA, userB, productID string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join([]string{pair[0], pair[1], productID}, ":")
}

func ConversationID(userA, userB, productID string) string {
	return uuid.NewSHA1(conversationNamespace, []byte(ConversationKey(userA, userB, productID))).String()
}

// NewConversation builds an active conversation with zeroed unread counters.
func NewConversation(userA, userB, productID string, now time.Time) *Conversation {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return &Conversation{
		ID:           ConversationID(userA, userB, productID),
		Participants: pair,
		ProductID:    productID,
		LastActivity: now,
		IsActive:     true,
		UnreadCount:  map[string]int{userA: 0, userB: 0},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (c *Conversation) IsParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

func (c *Conversation) UnreadFor(userID string) int {
	if c.UnreadCount == nil {
		return 0
	}
	return c.UnreadCount[userID]
}

type LastMessageSummary struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	SenderID    string    `json:"sender_id"`
	MessageType string    `json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// ConversationView is a conversation as seen by one of its participants.
type ConversationView struct {
	ID           string              `json:"id"`
	OtherUser    *UserSummary        `json:"other_user"`
	Product      *ProductSummary     `json:"product"`
	LastMessage  *LastMessageSummary `json:"last_message"`
	UnreadCount  int                 `json:"unread_count"`
	LastActivity time.Time           `json:"last_activity"`
	IsActive     bool                `json:"is_active"`
}
