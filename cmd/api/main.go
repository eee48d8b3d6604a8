package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	"sellnext/internal/adapter/api"
	"sellnext/internal/adapter/api/handler"
	apimiddleware "sellnext/internal/adapter/api/middleware"
	"sellnext/internal/adapter/api/router"
	"sellnext/internal/adapter/repository"
	domainrepo "sellnext/internal/domain/repository"
	"sellnext/internal/infrastructure/auth"
	"sellnext/internal/infrastructure/database"
	"sellnext/internal/infrastructure/firebase"
	"sellnext/internal/infrastructure/ratelimit"
	"sellnext/internal/infrastructure/storage"
	"sellnext/internal/infrastructure/websocket"
	"sellnext/internal/usecase"
	"sellnext/pkg/config"
	"sellnext/pkg/logger"
	"sellnext/pkg/response"
)

const shutdownTimeout = 10 * time.Second

// stores bundles the repositories of the selected backend.
type stores struct {
	name          string
	users         domainrepo.UserRepository
	products      domainrepo.ProductRepository
	favorites     domainrepo.FavoriteRepository
	conversations domainrepo.ConversationRepository
	ping          handler.StorePinger
	close         func() error
}

func main() {
	os.Exit(run())
}

// run returns the process exit code once every deferred cleanup has run.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		return 1
	}
	logger.Init(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open %s store: %v", cfg.StoreDriver, err)
		return 1
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Warn("Closing store: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.IsDevelopment()
	e.HTTPErrorHandler = response.HTTPErrorHandler
	e.Validator = api.NewValidator()

	imageStore, err := openImageStore(ctx, cfg, e)
	if err != nil {
		logger.Error("Failed to initialize image storage: %v", err)
		return 1
	}

	limiter := ratelimit.NewRateLimiter(nil)
	tokens := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)

	authUseCase := usecase.NewAuthUseCase(st.users, tokens)
	productUseCase := usecase.NewProductUseCase(st.products, st.users)
	favoriteUseCase := usecase.NewFavoriteUseCase(st.favorites, productUseCase)
	conversationUseCase := usecase.NewConversationUseCase(st.conversations, st.users, st.products, limiter)
	uploadUseCase := usecase.NewUploadUseCase(imageStore)

	wsManager := websocket.NewManager(conversationUseCase, limiter)

	e.Use(apimiddleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.ClientURLs,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(apimiddleware.RateLimit(limiter, ratelimit.ActionRequest))

	handlers := &handler.Handlers{
		Auth:      handler.NewAuthHandler(authUseCase),
		Product:   handler.NewProductHandler(productUseCase),
		Favorite:  handler.NewFavoriteHandler(favoriteUseCase),
		Message:   handler.NewMessageHandler(conversationUseCase),
		Upload:    handler.NewUploadHandler(uploadUseCase),
		WebSocket: handler.NewWebSocketHandler(wsManager, authUseCase, cfg.ClientURLs),
		Health:    handler.NewHealthHandler(st.name, st.ping),
	}
	router.Setup(e, handlers, apimiddleware.NewAuthMiddleware(authUseCase), limiter)

	g, gctx := errgroup.WithContext(ctx)

	limiter.StartCleanupRoutine(gctx)
	wsManager.Start(gctx)

	g.Go(func() error {
		logger.Info("Starting server on port %s (%s store)...", cfg.ServerPort, st.name)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		wsManager.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error: %v", err)
		return 1
	}
	logger.Info("Server stopped")
	return 0
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		level := gormlogger.Warn
		if cfg.IsDevelopment() {
			level = gormlogger.Info
		}
		db, err := database.OpenSQLite(cfg.SQLiteDSN, level)
		if err != nil {
			return nil, err
		}
		if err := repository.AutoMigrate(db); err != nil {
			_ = database.Close(db)
			return nil, err
		}
		return &stores{
			name:          config.StoreSQLite,
			users:         repository.NewGormUserRepository(db),
			products:      repository.NewGormProductRepository(db),
			favorites:     repository.NewGormFavoriteRepository(db),
			conversations: repository.NewGormConversationRepository(db),
			ping:          func(ctx context.Context) error { return database.Ping(ctx, db) },
			close:         func() error { return database.Close(db) },
		}, nil

	default:
		client, err := firebase.NewFirestore(ctx, cfg.FirebaseProject, firebase.ClientOptions(cfg.FirebaseCredentialsFile)...)
		if err != nil {
			return nil, err
		}
		return &stores{
			name:          config.StoreFirestore,
			users:         repository.NewFirestoreUserRepository(client),
			products:      repository.NewFirestoreProductRepository(client),
			favorites:     repository.NewFirestoreFavoriteRepository(client),
			conversations: repository.NewFirestoreConversationRepository(client),
			ping:          func(ctx context.Context) error { return firebase.Ping(ctx, client) },
			close:         client.Close,
		}, nil
	}
}

// openImageStore uses Cloud Storage when a bucket is configured and the local
// upload directory otherwise. Local files are served under /uploads.
func openImageStore(ctx context.Context, cfg *config.Config, e *echo.Echo) (usecase.ImageStore, error) {
	if cfg.StorageBucket != "" {
		return storage.NewGCSImageStore(ctx, cfg.StorageBucket, cfg.ClientURLs, firebase.ClientOptions(cfg.FirebaseCredentialsFile)...)
	}

	local, err := storage.NewLocalImageStore(cfg.UploadDir, "/uploads")
	if err != nil {
		return nil, err
	}
	e.Static("/uploads", local.Dir())
	return local, nil
}
