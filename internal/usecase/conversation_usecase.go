package usecase

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"sellnext/internal/domain/entity"
	"sellnext/internal/domain/repository"
	"sellnext/internal/infrastructure/ratelimit"
	"sellnext/pkg/errors"
	"sellnext/pkg/logger"
)

const enrichConcurrency = 8

type ConversationUseCase struct {
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	productRepo      repository.ProductRepository
	rateLimiter      RateLimiter
	now              func() time.Time
}

func NewConversationUseCase(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	rateLimiter RateLimiter,
) *ConversationUseCase {
	return &ConversationUseCase{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		productRepo:      productRepo,
		rateLimiter:      rateLimiter,
		now:              utcNow,
	}
}

type SendMessageInput struct {
	ConversationID  string
	Content         string
	MessageType     string
	ImageURL        string
	OfferAmount     *float64
	ReceiverID      string
	ClientMessageID string
}

type SendMessageResult struct {
	Message   *entity.MessageView `json:"message"`
	Duplicate bool                `json:"duplicate"`
}

type MessagePagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

type MessagePage struct {
	Messages   []*entity.MessageView `json:"messages"`
	Pagination MessagePagination     `json:"pagination"`
}

type ConversationResult struct {
	Conversation *entity.ConversationView `json:"conversation"`
	Created      bool                     `json:"created"`
}

// ListConversations returns the caller's active conversations, most recent
// activity first.
func (uc *ConversationUseCase) ListConversations(ctx context.Context, userID string) ([]*entity.ConversationView, error) {
	conversations, err := uc.conversationRepo.ListByParticipant(ctx, userID)
	if err != nil {
		logger.Error("ListConversations Error: %v", err)
		return nil, err
	}

	active := make([]*entity.Conversation, 0, len(conversations))
	for _, c := range conversations {
		if c.IsActive {
			active = append(active, c)
		}
	}

	views := make([]*entity.ConversationView, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i, c := range active {
		i, c := i, c
		g.Go(func() error {
			view, err := uc.buildView(gctx, c, userID, true)
			if err != nil {
				return err
			}
			views[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("ListConversations Error: %v", err)
		return nil, err
	}

	return views, nil
}

// GetOrCreateConversation returns the conversation between the caller and
// participantID about productID, creating it on first contact. The id is
// derived from the participant pair and product, so concurrent calls converge
// on one record.
func (uc *ConversationUseCase) GetOrCreateConversation(ctx context.Context, userID, participantID, productID string) (*ConversationResult, error) {
	if participantID == userID {
		return nil, errors.BadRequest("Cannot start a conversation with yourself", nil)
	}

	if _, err := uc.userRepo.GetByID(ctx, participantID); err != nil {
		return nil, err
	}

	if productID != "" {
		if _, err := uc.productRepo.GetByID(ctx, productID); err != nil {
			return nil, err
		}
	}

	id := entity.ConversationID(userID, participantID, productID)
	conversation, err := uc.conversationRepo.GetByID(ctx, id)
	switch {
	case err == nil:
		if !conversation.IsActive {
			if err := uc.conversationRepo.SetActive(ctx, id, true); err != nil {
				return nil, err
			}
			conversation.IsActive = true
		}
		view, err := uc.buildView(ctx, conversation, userID, true)
		if err != nil {
			return nil, err
		}
		return &ConversationResult{Conversation: view}, nil
	case !errors.Is(err, errors.CodeNotFound):
		return nil, err
	}

	// Only new conversations count against the limit.
	if allowed, _ := uc.rateLimiter.Allow(userID, ratelimit.ActionCreateConversation); !allowed {
		return nil, errors.TooManyRequests("Too many new conversations. Please wait before starting another one.")
	}

	conversation = entity.NewConversation(userID, participantID, productID, uc.now())
	if err := uc.conversationRepo.Create(ctx, conversation); err != nil {
		if !errors.Is(err, errors.CodeConflict) {
			logger.Error("GetOrCreateConversation Error: %v", err)
			return nil, err
		}
		// Lost the race to a concurrent create; use the winner.
		conversation, err = uc.conversationRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		view, err := uc.buildView(ctx, conversation, userID, true)
		if err != nil {
			return nil, err
		}
		return &ConversationResult{Conversation: view}, nil
	}

	logger.Info("Conversation %s created between %s and %s", conversation.ID, userID, participantID)
	view, err := uc.buildView(ctx, conversation, userID, false)
	if err != nil {
		return nil, err
	}
	return &ConversationResult{Conversation: view, Created: true}, nil
}

// ListMessages returns one page of a conversation, oldest message first, and
// marks everything addressed to the caller as read.
func (uc *ConversationUseCase) ListMessages(ctx context.Context, userID, conversationID string, page, limit int) (*MessagePage, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.IsParticipant(userID) {
		return nil, errors.Forbidden("Not authorized to view this conversation", nil)
	}

	messages, err := uc.conversationRepo.ListMessages(ctx, conversationID, limit+1, (page-1)*limit)
	if err != nil {
		logger.Error("ListMessages Error: %v", err)
		return nil, err
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	now := uc.now()
	if _, err := uc.conversationRepo.MarkConversationRead(ctx, conversationID, userID, now); err != nil {
		logger.Error("ListMessages Error: mark read: %v", err)
		return nil, err
	}

	participants := uc.participantSummaries(ctx, conversation)
	views := make([]*entity.MessageView, len(messages))
	for i, m := range messages {
		if m.ReceiverID == userID {
			m.MarkRead(now)
		}
		// newest first from the store, oldest first to the caller
		views[len(messages)-1-i] = &entity.MessageView{
			Message:  m,
			Sender:   participants[m.SenderID],
			Receiver: participants[m.ReceiverID],
		}
	}

	return &MessagePage{
		Messages:   views,
		Pagination: MessagePagination{Page: page, Limit: limit, HasMore: hasMore},
	}, nil
}

// SendMessage persists a message from the caller. A repeated client message id
// returns the stored message without counting it twice.
func (uc *ConversationUseCase) SendMessage(ctx context.Context, userID string, input SendMessageInput) (*SendMessageResult, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errors.BadRequest("Message content is required", nil)
	}
	if utf8.RuneCountInString(content) > entity.MaxMessageLength {
		return nil, errors.BadRequest("Message cannot exceed 1000 characters", nil)
	}

	messageType := input.MessageType
	if messageType == "" {
		messageType = entity.MessageTypeText
	}
	var offer *entity.Offer
	switch messageType {
	case entity.MessageTypeText, entity.MessageTypeSystem:
	case entity.MessageTypeImage:
		if input.ImageURL == "" {
			return nil, errors.BadRequest("Image messages require an image URL", nil)
		}
	case entity.MessageTypeOffer:
		if input.OfferAmount == nil || *input.OfferAmount < 0 {
			return nil, errors.BadRequest("Offer messages require a non-negative amount", nil)
		}
		offer = &entity.Offer{Amount: *input.OfferAmount, Status: "pending"}
	default:
		return nil, errors.BadRequest("Unsupported message type", nil)
	}

	conversation, err := uc.conversationRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.IsParticipant(userID) {
		return nil, errors.Forbidden("Not authorized to send messages in this conversation", nil)
	}

	receiverID := conversation.OtherParticipant(userID)
	if input.ReceiverID != "" && input.ReceiverID != receiverID {
		return nil, errors.BadRequest("Receiver is not the other participant of this conversation", nil)
	}

	messageID := entity.MessageID(conversation.ID, userID, input.ClientMessageID)

	// A retry of a stored send is answered before the rate limit is charged.
	if input.ClientMessageID != "" {
		existing, err := uc.conversationRepo.GetMessage(ctx, messageID)
		switch {
		case err == nil:
			logger.Debug("SendMessage: duplicate client message id %s in %s", input.ClientMessageID, conversation.ID)
			return uc.sendResult(ctx, conversation, existing, false), nil
		case !errors.Is(err, errors.CodeNotFound):
			return nil, err
		}
	}

	if allowed, _ := uc.rateLimiter.Allow(userID, ratelimit.ActionSendMessage); !allowed {
		return nil, errors.TooManyRequests("Too many messages. Please slow down.")
	}

	now := uc.now()
	message := &entity.Message{
		ID:              messageID,
		ConversationID:  conversation.ID,
		SenderID:        userID,
		ReceiverID:      receiverID,
		Content:         content,
		Type:            messageType,
		ImageURL:        input.ImageURL,
		Offer:           offer,
		Status:          entity.MessageStatusSent,
		ClientMessageID: input.ClientMessageID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	stored, created, err := uc.conversationRepo.AppendMessage(ctx, message)
	if err != nil {
		logger.Error("SendMessage Error: %v", err)
		return nil, err
	}
	if !created {
		logger.Debug("SendMessage: duplicate client message id %s in %s", input.ClientMessageID, conversation.ID)
	}

	return uc.sendResult(ctx, conversation, stored, created), nil
}

func (uc *ConversationUseCase) sendResult(ctx context.Context, conversation *entity.Conversation, stored *entity.Message, created bool) *SendMessageResult {
	participants := uc.participantSummaries(ctx, conversation)
	return &SendMessageResult{
		Message: &entity.MessageView{
			Message:  stored,
			Sender:   participants[stored.SenderID],
			Receiver: participants[stored.ReceiverID],
		},
		Duplicate: !created,
	}
}

func (uc *ConversationUseCase) MarkMessageRead(ctx context.Context, userID, messageID string) (*entity.Message, error) {
	message, err := uc.conversationRepo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.ReceiverID != userID {
		return nil, errors.Forbidden("Not authorized to mark this message as read", nil)
	}

	return uc.conversationRepo.MarkMessageRead(ctx, messageID, uc.now())
}

// UnreadCount sums the caller's per-conversation counters. The counters are
// the only unread bookkeeping, so this always agrees with the conversation list.
func (uc *ConversationUseCase) UnreadCount(ctx context.Context, userID string) (int, error) {
	conversations, err := uc.conversationRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, c := range conversations {
		total += c.UnreadFor(userID)
	}
	return total, nil
}

// ArchiveConversation hides a conversation from both participants' lists until
// it is reopened or receives a new message.
func (uc *ConversationUseCase) ArchiveConversation(ctx context.Context, userID, conversationID string) error {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conversation.IsParticipant(userID) {
		return errors.Forbidden("Not authorized to archive this conversation", nil)
	}
	return uc.conversationRepo.SetActive(ctx, conversationID, false)
}

// Participants lists the two members of a conversation. The real-time gateway
// uses it to authorize room joins and to address notifications.
func (uc *ConversationUseCase) Participants(ctx context.Context, conversationID string) ([]string, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return conversation.Participants, nil
}

func (uc *ConversationUseCase) buildView(ctx context.Context, c *entity.Conversation, viewerID string, withLastMessage bool) (*entity.ConversationView, error) {
	view := &entity.ConversationView{
		ID:           c.ID,
		UnreadCount:  c.UnreadFor(viewerID),
		LastActivity: c.LastActivity,
		IsActive:     c.IsActive,
	}

	other, err := uc.userRepo.GetByID(ctx, c.OtherParticipant(viewerID))
	switch {
	case err == nil:
		view.OtherUser = other.Summary()
	case !errors.Is(err, errors.CodeNotFound):
		return nil, err
	}

	if c.ProductID != "" {
		product, err := uc.productRepo.GetByID(ctx, c.ProductID)
		switch {
		case err == nil:
			view.Product = product.Summary()
		case !errors.Is(err, errors.CodeNotFound):
			return nil, err
		}
	}

	if withLastMessage && c.LastMessageID != "" {
		last, err := uc.conversationRepo.GetMessage(ctx, c.LastMessageID)
		switch {
		case err == nil:
			view.LastMessage = last.LastMessageSummary()
		case !errors.Is(err, errors.CodeNotFound):
			return nil, err
		}
	}

	return view, nil
}

func (uc *ConversationUseCase) participantSummaries(ctx context.Context, c *entity.Conversation) map[string]*entity.UserSummary {
	summaries := make(map[string]*entity.UserSummary, len(c.Participants))
	for _, id := range c.Participants {
		user, err := uc.userRepo.GetByID(ctx, id)
		if err != nil {
			logger.Warn("Participant %s of %s could not be loaded: %v", id, c.ID, err)
			continue
		}
		summaries[id] = user.Summary()
	}
	return summaries
}
