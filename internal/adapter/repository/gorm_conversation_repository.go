package repository

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"sellnext/internal/domain/entity"
	"sellnext/internal/domain/repository"
	"sellnext/pkg/errors"
)

type gormConversationRepository struct {
	db *gorm.DB
}

func NewGormConversationRepository(db *gorm.DB) repository.ConversationRepository {
	return &gormConversationRepository{db: db}
}

func (r *gormConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	if err := r.db.WithContext(ctx).Create(newConversationRecord(conversation)).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Conflict("Conversation already exists")
		}
		return errors.Internal("Failed to create conversation", err)
	}
	return nil
}

func (r *gormConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	rec, err := loadConversation(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return rec.toEntity(), nil
}

func (r *gormConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	var records []conversationRecord
	err := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("last_activity DESC").
		Find(&records).Error
	if err != nil {
		return nil, errors.Internal("Failed to list conversations", err)
	}

	conversations := make([]*entity.Conversation, 0, len(records))
	for i := range records {
		conversations = append(conversations, records[i].toEntity())
	}
	return conversations, nil
}

func (r *gormConversationRepository) SetActive(ctx context.Context, id string, active bool) error {
	result := r.db.WithContext(ctx).Model(&conversationRecord{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": active, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return errors.Internal("Failed to update conversation", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFound("Conversation", nil)
	}
	return nil
}

func (r *gormConversationRepository) AppendMessage(ctx context.Context, message *entity.Message) (*entity.Message, bool, error) {
	var (
		stored  *entity.Message
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing messageRecord
		err := tx.First(&existing, "id = ?", message.ID).Error
		if err == nil {
			stored, created = existing.toEntity(), false
			return nil
		}
		if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Internal("Failed to look up message", err)
		}

		conv, err := loadConversation(tx, message.ConversationID)
		if err != nil {
			return err
		}

		if err := tx.Create(newMessageRecord(message)).Error; err != nil {
			return err
		}

		unread := conv.unreadColumn(message.ReceiverID)
		err = tx.Model(&conversationRecord{}).Where("id = ?", conv.ID).Updates(map[string]interface{}{
			"last_message_id": message.ID,
			"last_activity":   message.CreatedAt,
			"updated_at":      message.CreatedAt,
			"is_active":       true,
			unread:            gorm.Expr(unread + " + 1"),
		}).Error
		if err != nil {
			return errors.Internal("Failed to update conversation", err)
		}

		stored, created = message, true
		return nil
	})
	if err != nil {
		// A concurrent retry with the same client message id won the insert.
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			existing, getErr := r.GetMessage(ctx, message.ID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		if _, ok := errors.As(err); ok {
			return nil, false, err
		}
		return nil, false, errors.Internal("Failed to send message", err)
	}
	return stored, created, nil
}

func (r *gormConversationRepository) GetMessage(ctx context.Context, id string) (*entity.Message, error) {
	var rec messageRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}
	return rec.toEntity(), nil
}

func (r *gormConversationRepository) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, error) {
	q := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var records []messageRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, errors.Internal("Failed to list messages", err)
	}

	messages := make([]*entity.Message, 0, len(records))
	for i := range records {
		messages = append(messages, records[i].toEntity())
	}
	return messages, nil
}

func (r *gormConversationRepository) MarkConversationRead(ctx context.Context, conversationID, userID string, at time.Time) (int, error) {
	var marked int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := loadConversation(tx, conversationID)
		if err != nil {
			return err
		}

		result := tx.Model(&messageRecord{}).
			Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conversationID, userID, false).
			Updates(map[string]interface{}{
				"is_read":    true,
				"read_at":    at,
				"status":     entity.MessageStatusRead,
				"updated_at": at,
			})
		if result.Error != nil {
			return errors.Internal("Failed to mark messages as read", result.Error)
		}
		marked = int(result.RowsAffected)

		err = tx.Model(&conversationRecord{}).Where("id = ?", conv.ID).
			UpdateColumn(conv.unreadColumn(userID), 0).Error
		if err != nil {
			return errors.Internal("Failed to reset unread counter", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return marked, nil
}

func (r *gormConversationRepository) MarkMessageRead(ctx context.Context, messageID string, at time.Time) (*entity.Message, error) {
	var result *entity.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec messageRecord
		if err := tx.First(&rec, "id = ?", messageID).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("Message", err)
			}
			return errors.Internal("Failed to get message", err)
		}

		message := rec.toEntity()
		result = message
		if !message.MarkRead(at) {
			return nil
		}

		conv, err := loadConversation(tx, message.ConversationID)
		if err != nil {
			return err
		}

		err = tx.Model(&messageRecord{}).Where("id = ?", message.ID).Updates(map[string]interface{}{
			"is_read":    true,
			"read_at":    at,
			"status":     entity.MessageStatusRead,
			"updated_at": at,
		}).Error
		if err != nil {
			return errors.Internal("Failed to mark message as read", err)
		}

		col := conv.unreadColumn(message.ReceiverID)
		err = tx.Model(&conversationRecord{}).Where("id = ?", conv.ID).
			UpdateColumn(col, gorm.Expr("CASE WHEN "+col+" > 0 THEN "+col+" - 1 ELSE 0 END")).Error
		if err != nil {
			return errors.Internal("Failed to decrement unread counter", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func loadConversation(db *gorm.DB, id string) (*conversationRecord, error) {
	var rec conversationRecord
	if err := db.First(&rec, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}
	return &rec, nil
}
