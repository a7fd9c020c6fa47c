package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"go-messenger/internal/config"
	"go-messenger/internal/database"
	"go-messenger/internal/event"
	"go-messenger/internal/handler"
	"go-messenger/internal/middleware"
	"go-messenger/internal/repository"
	"go-messenger/internal/router"
	"go-messenger/internal/security"
	"go-messenger/internal/service"
	"go-messenger/internal/token"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	signer, err := token.NewSigner(cfg.SigningKeys()...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token signer: %w", err)
	}

	hasher, err := security.NewHasher(cfg.ScryptN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	app := &App{}

	var userStore service.UserStore
	var sessionStore service.SessionStore
	var messageStore service.MessageStore

	switch cfg.SessionStore {
	case config.StoreMemory:
		slog.Info("using in-memory stores")
		userStore = repository.NewMemoryUserStore()
		sessionStore = repository.NewMemorySessionStore()
		messageStore = repository.NewMemoryMessageStore()

	case config.StoreRedis:
		db, err := app.connectDatabase(cfg)
		if err != nil {
			return nil, err
		}
		userStore = repository.NewUserRepository(db.Pool)
		messageStore = repository.NewMessageRepository(db.Pool)

		slog.Info("connecting to Redis", "addr", cfg.RedisAddr)
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		app.cleanupFuncs = append(app.cleanupFuncs, func() { _ = client.Close() })
		sessionStore = repository.NewRedisSessionStore(client)

	default:
		db, err := app.connectDatabase(cfg)
		if err != nil {
			return nil, err
		}
		userStore = repository.NewUserRepository(db.Pool)
		messageStore = repository.NewMessageRepository(db.Pool)
		sessionStore = repository.NewSessionRepository(db.Pool)
	}

	bus := event.NewBus()
	startAuditLogger(app, bus)

	sessionService := service.NewSessionService(sessionStore, cfg.SessionDuration)
	authService := service.NewAuthService(userStore, sessionService, messageStore, signer, hasher, bus)
	messageService := service.NewMessageService(messageStore, userStore)

	authMiddleware := middleware.NewAuthMiddleware(authService)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Message: handler.NewMessageHandler(messageService),
		User:    handler.NewUserHandler(authService),
	})

	app.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return app, nil
}

func (a *App) connectDatabase(cfg *config.Config) (*database.DB, error) {
	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	a.db = db
	a.cleanupFuncs = append(a.cleanupFuncs, db.Close)
	slog.Info("database ready")
	return db, nil
}

// startAuditLogger drains the auth event bus into the structured log so
// security-relevant events (failed logins, forged tokens, revocations) are
// visible without a separate audit sink.
func startAuditLogger(a *App, bus event.Bus) {
	events, unsubscribe := bus.Subscribe()
	a.cleanupFuncs = append(a.cleanupFuncs, unsubscribe)

	go func() {
		for e := range events {
			slog.Info("auth event",
				"event_id", e.ID,
				"type", string(e.Type),
				"actor_id", e.ActorID,
				"payload", e.Payload,
			)
		}
	}()
}

func (a *App) Run() error {
	errCh := make(chan error, 1)

	go func() {
		slog.Info("server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.cleanup()
		return err
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cleanup()
		return fmt.Errorf("server shutdown: %w", err)
	}

	a.cleanup()
	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
