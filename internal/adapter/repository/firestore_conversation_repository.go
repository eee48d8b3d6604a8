package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"sellnext/internal/domain/entity"
	"sellnext/internal/domain/repository"
	"sellnext/pkg/errors"
)

const (
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) conversations() *firestore.CollectionRef {
	return r.client.Collection(conversationsCollection)
}

func (r *firestoreConversationRepository) messages() *firestore.CollectionRef {
	return r.client.Collection(messagesCollection)
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	_, err := r.conversations().Doc(conversation.ID).Create(ctx, conversation)
	if err != nil {
		if isAlreadyExists(err) {
			return errors.Conflict("Conversation already exists")
		}
		return errors.Internal("Failed to create conversation", err)
	}
	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.conversations().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}
	return conversationFromSnapshot(doc)
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	iter := r.conversations().Where("participants", "array-contains", userID).Documents(ctx)
	defer iter.Stop()

	var conversations []*entity.Conversation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list conversations", err)
		}
		conversation, err := conversationFromSnapshot(doc)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastActivity.After(conversations[j].LastActivity)
	})
	return conversations, nil
}

func (r *firestoreConversationRepository) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.conversations().Doc(id).Update(ctx, []firestore.Update{
		{Path: "isActive", Value: active},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if isNotFound(err) {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to update conversation", err)
	}
	return nil
}

func (r *firestoreConversationRepository) AppendMessage(ctx context.Context, message *entity.Message) (*entity.Message, bool, error) {
	convRef := r.conversations().Doc(message.ConversationID)
	msgRef := r.messages().Doc(message.ID)

	var (
		stored  *entity.Message
		created bool
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Get(msgRef)
		if err == nil {
			stored, err = messageFromSnapshot(existing)
			created = false
			return err
		}
		if !isNotFound(err) {
			return err
		}

		if _, err := tx.Get(convRef); err != nil {
			return err
		}

		if err := tx.Create(msgRef, message); err != nil {
			return err
		}
		stored, created = message, true
		return tx.Update(convRef, []firestore.Update{
			{Path: "lastMessageId", Value: message.ID},
			{Path: "lastActivity", Value: message.CreatedAt},
			{Path: "updatedAt", Value: message.CreatedAt},
			{Path: "isActive", Value: true},
			{FieldPath: firestore.FieldPath{"unreadCount", message.ReceiverID}, Value: firestore.Increment(1)},
		})
	})
	if err != nil {
		// A concurrent retry with the same client message id won the create.
		if isAlreadyExists(err) {
			existing, getErr := r.GetMessage(ctx, message.ID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		if isNotFound(err) {
			return nil, false, errors.NotFound("Conversation", err)
		}
		return nil, false, errors.Internal("Failed to send message", err)
	}
	return stored, created, nil
}

func (r *firestoreConversationRepository) GetMessage(ctx context.Context, id string) (*entity.Message, error) {
	doc, err := r.messages().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}
	return messageFromSnapshot(doc)
}

// ListMessages needs the composite index (conversationId asc, createdAt desc)
// declared in firestore.indexes.json.
func (r *firestoreConversationRepository) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, error) {
	query := r.messages().
		Where("conversationId", "==", conversationID).
		OrderBy("createdAt", firestore.Desc)
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list messages", err)
		}
		message, err := messageFromSnapshot(doc)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func (r *firestoreConversationRepository) MarkConversationRead(ctx context.Context, conversationID, userID string, at time.Time) (int, error) {
	convRef := r.conversations().Doc(conversationID)
	unread := r.messages().
		Where("conversationId", "==", conversationID).
		Where("receiverId", "==", userID).
		Where("isRead", "==", false)

	var marked int
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := tx.Documents(unread).GetAll()
		if err != nil {
			return err
		}
		if _, err := tx.Get(convRef); err != nil {
			return err
		}

		for _, doc := range docs {
			if err := tx.Update(doc.Ref, readUpdates(at)); err != nil {
				return err
			}
		}
		marked = len(docs)
		return tx.Update(convRef, []firestore.Update{
			{FieldPath: firestore.FieldPath{"unreadCount", userID}, Value: 0},
		})
	})
	if err != nil {
		if isNotFound(err) {
			return 0, errors.NotFound("Conversation", err)
		}
		return 0, errors.Internal("Failed to mark conversation as read", err)
	}
	return marked, nil
}

func (r *firestoreConversationRepository) MarkMessageRead(ctx context.Context, messageID string, at time.Time) (*entity.Message, error) {
	msgRef := r.messages().Doc(messageID)

	var result *entity.Message
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(msgRef)
		if err != nil {
			return err
		}
		message, err := messageFromSnapshot(doc)
		if err != nil {
			return err
		}
		result = message
		if message.IsRead {
			return nil
		}

		convRef := r.conversations().Doc(message.ConversationID)
		convDoc, err := tx.Get(convRef)
		if err != nil {
			return err
		}
		conversation, err := conversationFromSnapshot(convDoc)
		if err != nil {
			return err
		}

		message.MarkRead(at)
		if err := tx.Update(msgRef, readUpdates(at)); err != nil {
			return err
		}

		remaining := conversation.UnreadFor(message.ReceiverID) - 1
		if remaining < 0 {
			remaining = 0
		}
		return tx.Update(convRef, []firestore.Update{
			{FieldPath: firestore.FieldPath{"unreadCount", message.ReceiverID}, Value: remaining},
		})
	})
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to mark message as read", err)
	}
	return result, nil
}

func readUpdates(at time.Time) []firestore.Update {
	return []firestore.Update{
		{Path: "isRead", Value: true},
		{Path: "readAt", Value: at},
		{Path: "status", Value: entity.MessageStatusRead},
		{Path: "updatedAt", Value: at},
	}
}

func conversationFromSnapshot(doc *firestore.DocumentSnapshot) (*entity.Conversation, error) {
	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	if conversation.UnreadCount == nil {
		conversation.UnreadCount = map[string]int{}
	}
	return &conversation, nil
}

func messageFromSnapshot(doc *firestore.DocumentSnapshot) (*entity.Message, error) {
	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}
