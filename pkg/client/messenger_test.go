package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"sellnext/internal/adapter/api"
	"sellnext/internal/adapter/api/handler"
	"sellnext/internal/adapter/api/middleware"
	"sellnext/internal/adapter/api/router"
	"sellnext/internal/adapter/repository"
	"sellnext/internal/infrastructure/auth"
	"sellnext/internal/infrastructure/database"
	"sellnext/internal/infrastructure/ratelimit"
	"sellnext/internal/infrastructure/storage"
	ws "sellnext/internal/infrastructure/websocket"
	"sellnext/internal/usecase"
	"sellnext/pkg/response"
)

// startServer runs the full API on an in-memory store.
func startServer(t *testing.T) (*httptest.Server, *ws.Manager) {
	t.Helper()

	db, err := database.OpenSQLite(":memory:", gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	users := repository.NewGormUserRepository(db)
	products := repository.NewGormProductRepository(db)
	conversations := repository.NewGormConversationRepository(db)

	images, err := storage.NewLocalImageStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	limiter := ratelimit.NewRateLimiter(nil)
	authUseCase := usecase.NewAuthUseCase(users, auth.NewJWTService(strings.Repeat("k", 32), time.Hour))
	productUseCase := usecase.NewProductUseCase(products, users)
	conversationUseCase := usecase.NewConversationUseCase(conversations, users, products, limiter)

	manager := ws.NewManager(conversationUseCase, limiter)
	ctx, cancel := context.WithCancel(context.Background())
	manager.Start(ctx)

	e := echo.New()
	e.HTTPErrorHandler = response.HTTPErrorHandler
	e.Validator = api.NewValidator()
	router.Setup(e, &handler.Handlers{
		Auth:      handler.NewAuthHandler(authUseCase),
		Product:   handler.NewProductHandler(productUseCase),
		Favorite:  handler.NewFavoriteHandler(usecase.NewFavoriteUseCase(repository.NewGormFavoriteRepository(db), productUseCase)),
		Message:   handler.NewMessageHandler(conversationUseCase),
		Upload:    handler.NewUploadHandler(usecase.NewUploadUseCase(images)),
		WebSocket: handler.NewWebSocketHandler(manager, authUseCase, []string{"*"}),
		Health:    handler.NewHealthHandler("sqlite", nil),
	}, middleware.NewAuthMiddleware(authUseCase), limiter)

	server := httptest.NewServer(e)
	t.Cleanup(func() {
		cancel()
		manager.Stop()
		server.Close()
		_ = database.Close(db)
	})
	return server, manager
}

func signup(t *testing.T, baseURL, name, email string) (*APIClient, *Session) {
	t.Helper()
	apiClient := NewAPIClient(baseURL, nil)
	session, err := apiClient.Signup(context.Background(), SignupRequest{
		FullName: name,
		Email:    email,
		Phone:    "+15550100",
		Location: "Springfield",
		Password: "Secret123",
	})
	require.NoError(t, err)
	require.Equal(t, session.Token, apiClient.Token())
	return apiClient, session
}

func TestAPIClientErrors(t *testing.T) {
	server, _ := startServer(t)
	apiClient, _ := signup(t, server.URL, "Dana Reyes", "dana@example.com")

	_, err := apiClient.GetProduct(context.Background(), "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)

	_, err = NewAPIClient(server.URL, nil).Login(context.Background(), "dana@example.com", "nope")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	_, err = DialSocket(context.Background(), SocketURL(server.URL), "bad-token")
	assert.Error(t, err)
}

func TestMessengerEndToEnd(t *testing.T) {
	server, manager := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sellerAPI, seller := signup(t, server.URL, "Dana Reyes", "dana@example.com")
	buyerAPI, buyer := signup(t, server.URL, "Lee Park", "lee@example.com")

	conversation, created, err := buyerAPI.GetOrCreateConversation(ctx, seller.User.ID, "")
	require.NoError(t, err)
	assert.True(t, created)

	sellerSide := NewMessenger(sellerAPI, NewMessagingState(seller.User.ID))
	buyerSide := NewMessenger(buyerAPI, NewMessagingState(buyer.User.ID))

	sellerSocket, err := sellerSide.Connect(ctx)
	require.NoError(t, err)
	defer sellerSocket.Close()
	buyerSocket, err := buyerSide.Connect(ctx)
	require.NoError(t, err)
	defer buyerSocket.Close()

	require.NoError(t, sellerSide.Refresh(ctx))
	require.NoError(t, sellerSide.Open(ctx, conversation.ID))
	require.NoError(t, buyerSide.Open(ctx, conversation.ID))

	require.Eventually(t, func() bool {
		return manager.RoomSize(ws.ConversationRoom(conversation.ID)) == 2
	}, 2*time.Second, 10*time.Millisecond)

	go func() { _ = sellerSide.Run(ctx) }()

	stored, err := buyerSide.Send(ctx, conversation.ID, seller.User.ID, "Is the bike still available?")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ClientMessageID)

	buyerMessages := buyerSide.State().Messages(conversation.ID)
	require.Len(t, buyerMessages, 1)
	assert.Equal(t, stored.ID, buyerMessages[0].ID)
	assert.Equal(t, StateSent, buyerMessages[0].State)

	require.Eventually(t, func() bool {
		messages := sellerSide.State().Messages(conversation.ID)
		return len(messages) == 1 && messages[0].ID == stored.ID
	}, 2*time.Second, 10*time.Millisecond)

	// the REST refresh replaces the hint without duplicating it
	require.NoError(t, sellerSide.Open(ctx, conversation.ID))
	messages := sellerSide.State().Messages(conversation.ID)
	require.Len(t, messages, 1)
	assert.Equal(t, stored.ClientMessageID, messages[0].ClientMessageID)
	assert.Equal(t, 0, sellerSide.State().UnreadTotal())

	require.NoError(t, buyerSide.StartTyping(conversation.ID))
	require.Eventually(t, func() bool {
		users := sellerSide.State().TypingUsers(conversation.ID)
		return len(users) == 1 && users[0] == buyer.User.ID
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, buyerSide.StopTyping(conversation.ID))
	require.Eventually(t, func() bool {
		return !sellerSide.State().IsTyping(conversation.ID)
	}, 2*time.Second, 10*time.Millisecond)

	total, err := sellerAPI.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestFavoritesCache(t *testing.T) {
	server, _ := startServer(t)
	ctx := context.Background()

	sellerAPI, _ := signup(t, server.URL, "Dana Reyes", "dana@example.com")
	buyerAPI, _ := signup(t, server.URL, "Lee Park", "lee@example.com")

	productID := createListing(t, sellerAPI)

	favorites := NewFavorites(buyerAPI)
	require.NoError(t, favorites.Load(ctx))
	assert.False(t, favorites.IsFavorited(productID))

	on, err := favorites.Toggle(ctx, productID)
	require.NoError(t, err)
	assert.True(t, on)

	reloaded := NewFavorites(buyerAPI)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, []string{productID}, reloaded.IDs())

	on, err = favorites.Toggle(ctx, productID)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Empty(t, favorites.IDs())
}

// createListing posts a product through the generic request path; the
// client library itself has no seller-side calls.
func createListing(t *testing.T, apiClient *APIClient) string {
	t.Helper()
	var out struct {
		Product *Product `json:"product"`
	}
	err := apiClient.do(context.Background(), http.MethodPost, "/api/products", map[string]interface{}{
		"title":       "Road bike",
		"description": "A well kept road bike in working order",
		"price":       250,
		"category":    "Sports",
		"condition":   "Good",
		"images":      []string{"https://img.example.com/bike.jpg"},
		"location":    "Springfield",
	}, &out)
	require.NoError(t, err)
	require.NotNil(t, out.Product)
	require.NotEmpty(t, out.Product.ID)
	return out.Product.ID
}
