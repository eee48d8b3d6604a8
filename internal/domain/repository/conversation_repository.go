package repository

import (
	"context"
	"time"

	"sellnext/internal/domain/entity"
)

type ConversationRepository interface {
	// Create fails with a conflict error when a conversation with the same id exists.
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	// ListByParticipant returns every conversation of the user, most recent activity first.
	ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error)
	SetActive(ctx context.Context, id string, active bool) error

	// AppendMessage stores the message and, in the same transaction, moves the
	// conversation's last message pointer and increments the receiver's unread
	// counter. When a message with the same id already exists it is returned
	// with created=false and nothing is modified.
	AppendMessage(ctx context.Context, message *entity.Message) (stored *entity.Message, created bool, err error)
	GetMessage(ctx context.Context, id string) (*entity.Message, error)
	// ListMessages returns messages newest first.
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, error)
	// MarkConversationRead marks every unread message addressed to userID as
	// read and zeroes the user's unread counter. It returns the number of
	// messages flipped.
	MarkConversationRead(ctx context.Context, conversationID, userID string, at time.Time) (int, error)
	// MarkMessageRead flips one message to read and decrements its receiver's
	// unread counter when it was unread.
	MarkMessageRead(ctx context.Context, messageID string, at time.Time) (*entity.Message, error)
}
