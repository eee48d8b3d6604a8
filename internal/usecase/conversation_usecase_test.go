package usecase

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellnext/pkg/errors"
)

func TestGetOrCreateConversationReturnsSameConversation(t *testing.T) {
	f := newFixture(t)
	seller := f.signup(t, "Alice Seller")
	buyer := f.signup(t, "Bob Buyer")
	product := f.listProduct(t, seller.ID, "Road Bike", 250)

	first, err := f.conversations.GetOrCreateConversation(f.ctx, buyer.ID, seller.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 0, first.Conversation.UnreadCount)
	assert.Equal(t, seller.ID, first.Conversation.OtherUser.ID)
	assert.Equal(t, product.ID, first.Conversation.Product.ID)

	again, err := f.conversations.GetOrCreateConversation(f.ctx, buyer.ID, seller.ID, product.ID)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, first.Conversation.ID, again.Conversation.ID)

	// the pair is unordered
	reversed, err := f.conversations.GetOrCreateConversation(f.ctx, seller.ID, buyer.ID, product.ID)
	require.NoError(t, err)
	assert.False(t, reversed.Created)
	assert.Equal(t, first.Conversation.ID, reversed.Conversation.ID)

	// a different product is a different thread
	general, err := f.conversations.GetOrCreateConversation(f.ctx, buyer.ID, seller.ID, "")
	require.NoError(t, err)
	assert.True(t, general.Created)
	assert.NotEqual(t, first.Conversation.ID, general.Conversation.ID)
}

func TestGetOrCreateConversationValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Seller")

	_, err := f.conversations.GetOrCreateConversation(f.ctx, alice.ID, "missing-user", "")
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, err = f.conversations.GetOrCreateConversation(f.ctx, alice.ID, alice.ID, "")
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	bob := f.signup(t, "Bob Buyer")
	_, err = f.conversations.GetOrCreateConversation(f.ctx, bob.ID, alice.ID, "missing-product")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestGetOrCreateConversationRateLimited(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Seller")
	bob := f.signup(t, "Bob Buyer")
	f.conversations.rateLimiter = denyAll{}

	_, err := f.conversations.GetOrCreateConversation(f.ctx, bob.ID, alice.ID, "")
	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))
}

func TestConversationScenario(t *testing.T) {
	f := newFixture(t)
	seller := f.signup(t, "Alice Seller")
	buyer := f.signup(t, "Bob Buyer")
	product := f.listProduct(t, seller.ID, "Camera", 300)

	created, err := f.conversations.GetOrCreateConversation(f.ctx, buyer.ID, seller.ID, product.ID)
	require.NoError(t, err)
	conversationID := created.Conversation.ID

	sent, err := f.conversations.SendMessage(f.ctx, buyer.ID, SendMessageInput{
		ConversationID: conversationID,
		Content:        "Is this available?",
	})
	require.NoError(t, err)
	assert.False(t, sent.Duplicate)
	assert.Equal(t, seller.ID, sent.Message.ReceiverID)
	assert.Equal(t, "text", sent.Message.Type)
	assert.Equal(t, "sent", sent.Message.Status)
	assert.Equal(t, buyer.ID, sent.Message.Sender.ID)

	list, err := f.conversations.ListConversations(f.ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].UnreadCount)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, sent.Message.ID, list[0].LastMessage.ID)
	assert.Equal(t, "Is this available?", list[0].LastMessage.Content)
	assert.Equal(t, buyer.ID, list[0].OtherUser.ID)

	total, err := f.conversations.UnreadCount(f.ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	// the sender's own counter is untouched
	buyerList, err := f.conversations.ListConversations(f.ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, buyerList, 1)
	assert.Equal(t, 0, buyerList[0].UnreadCount)

	page, err := f.conversations.ListMessages(f.ctx, seller.ID, conversationID, 1, 50)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.True(t, page.Messages[0].IsRead)
	assert.Equal(t, "read", page.Messages[0].Status)
	assert.NotNil(t, page.Messages[0].ReadAt)

	list, err = f.conversations.ListConversations(f.ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, list[0].UnreadCount)

	total, err = f.conversations.UnreadCount(f.ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	stored, err := f.conversations.conversationRepo.GetMessage(f.ctx, sent.Message.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)
}

func TestEachMessageIncrementsReceiverCounterByOne(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Seller")
	bob := f.signup(t, "Bob Buyer")

	created, err := f.conversations.GetOrCreateConversation(f.ctx, bob.ID, alice.ID, "")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		_, err := f.conversations.SendMessage(f.ctx, bob.ID, SendMessageInput{
			ConversationID: created.Conversation.ID,
			Content:        fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)

		conversation, err := f.conversations.conversationRepo.GetByID(f.ctx, created.Conversation.ID)
		require.NoError(t, err)
		assert.Equal(t, i, conversation.UnreadFor(alice.ID))
		assert.Equal(t, 0, conversation.UnreadFor(bob.ID))
	}
}

func TestNonParticipantIsForbidden(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Seller")
	bob := f.signup(t, "Bob Buyer")
	mallory := f.signup(t, "Mallory Outsider")

	created, err := f.conversations.GetOrCreateConversation(f.ctx, bob.ID, alice.ID, "")
	require.NoError(t, err)

	_, err = f.conversations.ListMessages(f.ctx, mallory.ID, created.Conversation.ID, 1, 50)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.conversations.SendMessage(f.ctx, mallory.ID, SendMessageInput{
		ConversationID: created.Conversation.ID,
		Content:        "hello",
	})
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	err = f.conversations.ArchiveConversation(f.ctx, mallory.ID, created.Conversation.ID)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.conversations.ListMessages(f.ctx, mallory.ID, "missing", 1, 50)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestSendMessageWithClientMessageIDIsIdempotent(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Seller")
	bob := f.signup(t, "Bob Buyer")

	created, err := f.conversations.GetOrCreateConversation(f.ctx, bob.ID, alice.ID, "")
	require.NoError(t, err)

	input := SendMessageInput{
		ConversationID:  created.Conversation.ID,
		Content:         "Still for sale?",
		ClientMessageID: "4b3f0c1e-7d2a-4f5e-9a1b-0c2d3e4f5a6b",
	}
	first, err := f.conversations.SendMessage(f.ctx, bob.ID, input)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	assert.Equal(t, input.ClientMessageID, first.Message.ClientMessageID)

	retry, err := f.conversations.SendMessage(f.ctx, bob.ID, input)
	require.NoError(t, err)
	assert.True(t, retry.Duplicate)
	assert.Equal(t, first.Message.ID, retry.Message.ID)

	conversation, err := f.conversations.conversationRepo.GetByID(f.ctx, created.Conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, conversation.UnreadFor(alice.ID))

	page, err := f.conversations.ListMessages(f.ctx, bob.ID, created.Conversation.ID, 1, 50)
	require.NoError(t, err)
	assert.Len(t, page.Messages, 1)
}

func TestRetriesAreNotRateLimited(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Seller")
	bob := f.signup(t, "Bob Buyer")

	created, err := f.conversations.GetOrCreateConversation(f.ctx, bob.ID, alice.ID, "")
	require.NoError(t, err)

	input := SendMessageInput{
		ConversationID:  created.Conversation.ID,
		Content:         "Still for sale?",
		ClientMessageID: "9c1d2e3f-4a5b-4c6d-8e7f-0a1b2c3d4e5f",
	}
	first, err := f.conversations.SendMessage(f.ctx, bob.ID, input)
	require.NoError(t, err)

	f.conversations.rateLimiter = denyAll{}

	retry, err := f.conversations.SendMessage(f.ctx, bob.ID, input)
	require.NoError(t, err)
	assert.True(t, retry.Duplicate)
	assert.Equal(t, first.Message.ID, retry.Message.ID)

	input.ClientMessageID = "0f9e8d7c-6b5a-4c3d-9e2f-1a0b9c8d7e6f"
	_, err = f.conversations.SendMessage(f.ctx, bob.ID, input)
	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))

	again, err := f.conversations.GetOrCreateConversation(f.ctx, bob.ID, alice.ID, "")
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, created.Conversation.ID, again.Conversation.ID)

	conversation, err := f.conversations.conversationRepo.GetByID(f.ctx, created.Conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, conversation.UnreadFor(alice.ID))
}

func TestSendMessageValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Seller")
	bob := f.signup(t, "Bob Buyer")

	created, err := f.conversations.GetOrCreateConversation(f.ctx, bob.ID, alice.ID, "")
	require.NoError(t, err)
	id := created.Conversation.ID

	long := make([]rune, 1001)
	for i := range long {
		long[i] = 'x'
	}
	amount := -5.0

	cases := []struct {
		name  string
		input SendMessageInput
		code  string
	}{
		{"blank", SendMessageInput{ConversationID: id, Content: "   "}, errors.CodeBadRequest},
		{"too long", SendMessageInput{ConversationID: id, Content: string(long)}, errors.CodeBadRequest},
		{"image without url", SendMessageInput{ConversationID: id, Content: "pic", MessageType: "image"}, errors.CodeBadRequest},
		{"negative offer", SendMessageInput{ConversationID: id, Content: "offer", MessageType: "offer", OfferAmount: &amount}, errors.CodeBadRequest},
		{"unknown type", SendMessageInput{ConversationID: id, Content: "hi", MessageType: "video"}, errors.CodeBadRequest},
		{"wrong receiver", SendMessageInput{ConversationID: id, Content: "hi", ReceiverID: bob.ID}, errors.CodeBadRequest},
		{"missing conversation", SendMessageInput{ConversationID: "missing", Content: "hi"}, errors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.conversations.SendMessage(f.ctx, bob.ID, tc.input)
			assert.True(t, errors.Is(err, tc.code), "got %v", err)
		})
	}

	offer := 120.0
	sent, err := f.conversations.SendMessage(f.ctx, bob.ID, SendMessageInput{
		ConversationID: id, Content: "Would you take 120?", MessageType: "offer", OfferAmount: &offer,
	})
	require.NoError(t, err)
	require.NotNil(t, sent.Message.Offer)
	assert.Equal(t, 120.0, sent.Message.Offer.Amount)
	assert.Equal(t, "pending", sent.Message.Offer.Status)
}

func TestListMessagesPagination(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Seller")
	bob := f.signup(t, "Bob Buyer")

	created, err := f.conversations.GetOrCreateConversation(f.ctx, bob.ID, alice.ID, "")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		_, err := f.conversations.SendMessage(f.ctx, bob.ID, SendMessageInput{
			ConversationID: created.Conversation.ID,
			Content:        fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}

	first, err := f.conversations.ListMessages(f.ctx, bob.ID, created.Conversation.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, first.Messages, 2)
	assert.True(t, first.Pagination.HasMore)
	assert.Equal(t, "message 2", first.Messages[0].Content)
	assert.Equal(t, "message 3", first.Messages[1].Content)

	second, err := f.conversations.ListMessages(f.ctx, bob.ID, created.Conversation.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, second.Messages, 1)
	assert.False(t, second.Pagination.HasMore)
	assert.Equal(t, "message 1", second.Messages[0].Content)

	// reading as the sender leaves the receiver counter alone
	total, err := f.conversations.UnreadCount(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestMarkMessageRead(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Seller")
	bob := f.signup(t, "Bob Buyer")

	created, err := f.conversations.GetOrCreateConversation(f.ctx, bob.ID, alice.ID, "")
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 2; i++ {
		sent, err := f.conversations.SendMessage(f.ctx, bob.ID, SendMessageInput{
			ConversationID: created.Conversation.ID,
			Content:        fmt.Sprintf("ping %d", i),
		})
		require.NoError(t, err)
		ids = append(ids, sent.Message.ID)
	}

	_, err = f.conversations.MarkMessageRead(f.ctx, bob.ID, ids[0])
	assert.True(t, errors.Is(err, errors.CodeForbidden), "only the receiver may mark a message read")

	_, err = f.conversations.MarkMessageRead(f.ctx, alice.ID, "missing")
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	read, err := f.conversations.MarkMessageRead(f.ctx, alice.ID, ids[0])
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.Equal(t, "read", read.Status)

	// marking twice does not decrement twice
	_, err = f.conversations.MarkMessageRead(f.ctx, alice.ID, ids[0])
	require.NoError(t, err)

	total, err := f.conversations.UnreadCount(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	list, err := f.conversations.ListConversations(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, total, list[0].UnreadCount)
}

func TestUnreadCountSumsConversations(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Seller")
	bob := f.signup(t, "Bob Buyer")
	carol := f.signup(t, "Carol Buyer")

	withBob, err := f.conversations.GetOrCreateConversation(f.ctx, bob.ID, alice.ID, "")
	require.NoError(t, err)
	withCarol, err := f.conversations.GetOrCreateConversation(f.ctx, carol.ID, alice.ID, "")
	require.NoError(t, err)

	send := func(from string, conversationID string) {
		_, err := f.conversations.SendMessage(f.ctx, from, SendMessageInput{ConversationID: conversationID, Content: "hi"})
		require.NoError(t, err)
	}
	send(bob.ID, withBob.Conversation.ID)
	send(bob.ID, withBob.Conversation.ID)
	send(carol.ID, withCarol.Conversation.ID)

	total, err := f.conversations.UnreadCount(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	_, err = f.conversations.ListMessages(f.ctx, alice.ID, withBob.Conversation.ID, 1, 50)
	require.NoError(t, err)

	total, err = f.conversations.UnreadCount(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	list, err := f.conversations.ListConversations(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// most recent activity first
	assert.Equal(t, withCarol.Conversation.ID, list[0].ID)
	sum := 0
	for _, c := range list {
		sum += c.UnreadCount
	}
	assert.Equal(t, total, sum)
}

func TestArchiveConversation(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Seller")
	bob := f.signup(t, "Bob Buyer")

	created, err := f.conversations.GetOrCreateConversation(f.ctx, bob.ID, alice.ID, "")
	require.NoError(t, err)

	require.NoError(t, f.conversations.ArchiveConversation(f.ctx, alice.ID, created.Conversation.ID))

	list, err := f.conversations.ListConversations(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.conversations.SendMessage(f.ctx, bob.ID, SendMessageInput{
		ConversationID: created.Conversation.ID,
		Content:        "Are you still there?",
	})
	require.NoError(t, err)

	list, err = f.conversations.ListConversations(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsActive)
}

func TestParticipants(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Seller")
	bob := f.signup(t, "Bob Buyer")

	created, err := f.conversations.GetOrCreateConversation(f.ctx, bob.ID, alice.ID, "")
	require.NoError(t, err)

	participants, err := f.conversations.Participants(f.ctx, created.Conversation.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, participants)
}
