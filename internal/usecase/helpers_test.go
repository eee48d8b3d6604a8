package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	gormlogger "gorm.io/gorm/logger"

	"sellnext/internal/adapter/repository"
	"sellnext/internal/domain/entity"
	"sellnext/internal/infrastructure/database"
)

type fakeTokens struct{}

func (fakeTokens) GenerateToken(userID string) (string, error) {
	return "token-" + userID, nil
}

func (fakeTokens) VerifyToken(token string) (string, error) {
	if !strings.HasPrefix(token, "token-") {
		return "", context.Canceled
	}
	return strings.TrimPrefix(token, "token-"), nil
}

type allowAll struct{}

func (allowAll) Allow(string, string) (bool, time.Duration) { return true, 0 }

type denyAll struct{}

func (denyAll) Allow(string, string) (bool, time.Duration) { return false, time.Minute }

// stepClock advances one second on every reading so stored timestamps are
// strictly ordered.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	ctx           context.Context
	auth          *AuthUseCase
	products      *ProductUseCase
	favorites     *FavoriteUseCase
	conversations *ConversationUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.OpenSQLite(":memory:", gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	userRepo := repository.NewGormUserRepository(db)
	productRepo := repository.NewGormProductRepository(db)
	favoriteRepo := repository.NewGormFavoriteRepository(db)
	conversationRepo := repository.NewGormConversationRepository(db)

	clock := newStepClock()

	auth := NewAuthUseCase(userRepo, fakeTokens{})
	auth.hashCost = bcrypt.MinCost
	auth.now = clock.Now

	products := NewProductUseCase(productRepo, userRepo)
	products.now = clock.Now

	conversations := NewConversationUseCase(conversationRepo, userRepo, productRepo, allowAll{})
	conversations.now = clock.Now

	return &fixture{
		ctx:           context.Background(),
		auth:          auth,
		products:      products,
		favorites:     NewFavoriteUseCase(favoriteRepo, products),
		conversations: conversations,
	}
}

func (f *fixture) signup(t *testing.T, name string) *entity.User {
	t.Helper()
	result, err := f.auth.Signup(f.ctx, SignupInput{
		FullName: name,
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Phone:    "+15550100",
		Location: "Springfield",
		Password: "Secret123",
	})
	require.NoError(t, err)
	return result.User
}

func (f *fixture) listProduct(t *testing.T, sellerID, title string, price float64) *entity.ProductView {
	t.Helper()
	product, err := f.products.CreateProduct(f.ctx, sellerID, CreateProductInput{
		Title:       title,
		Description: "A well kept " + title + " in working order",
		Price:       price,
		Category:    "Electronics",
		Condition:   "Good",
		Images:      []string{"https://img.example.com/" + strings.ReplaceAll(title, " ", "-") + ".jpg"},
		Location:    "Springfield",
	})
	require.NoError(t, err)
	return product
}
