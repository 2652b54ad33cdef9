package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"marketsync/internal/adapter/api"
	"marketsync/internal/adapter/api/handler"
	apimiddleware "marketsync/internal/adapter/api/middleware"
	"marketsync/internal/adapter/api/router"
	"marketsync/internal/adapter/events"
	"marketsync/internal/adapter/repository"
	"marketsync/internal/adapter/repository/memory"
	domainrepo "marketsync/internal/domain/repository"
	"marketsync/internal/infrastructure/broker/kafka"
	"marketsync/internal/infrastructure/firebase"
	"marketsync/internal/infrastructure/firestoredb"
	"marketsync/internal/infrastructure/ratelimit"
	"marketsync/internal/infrastructure/websocket"
	"marketsync/internal/usecase"
	"marketsync/pkg/config"
	"marketsync/pkg/logger"
)

type stores struct {
	items         domainrepo.ItemRepository
	memberships   domainrepo.MembershipRepository
	conversations domainrepo.ConversationRepository
	notifications domainrepo.NotificationRepository
	verifier      apimiddleware.TokenVerifier
	close         func() error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn("using the in-memory store with development tokens; data is lost on exit")
		db := memory.NewDB()
		return &stores{
			items:         memory.NewItemRepository(db),
			memberships:   memory.NewMembershipRepository(db),
			conversations: memory.NewConversationRepository(db),
			notifications: memory.NewNotificationRepository(db),
			verifier:      firebase.DevTokenVerifier{},
			close:         func() error { return nil },
		}, nil
	}

	clients, err := firestoredb.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &stores{
		items:         repository.NewFirestoreItemRepository(clients.Firestore),
		memberships:   repository.NewFirestoreMembershipRepository(clients.Firestore),
		conversations: repository.NewFirestoreConversationRepository(clients.Firestore),
		notifications: repository.NewFirestoreNotificationRepository(clients.Firestore),
		verifier:      firebase.NewFirebaseAuthClient(clients.Auth),
		close:         clients.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Environment, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer st.close()

	limiter := ratelimit.NewRateLimiter(ratelimit.DefaultRules(cfg.MessageRatePerMinute))
	limiter.StartCleanupRoutine(ctx)

	membershipUseCase := usecase.NewMembershipUseCase(st.memberships, limiter)
	itemUseCase := usecase.NewItemUseCase(st.items, nil)
	boostUseCase := usecase.NewBoostUseCase(st.items, st.notifications, nil)
	conversationUseCase := usecase.NewConversationUseCase(st.conversations, st.notifications, limiter, nil, usecase.ConversationConfig{
		ListLimit: cfg.ConversationListLimit,
		PageSize:  cfg.MessagePageSize,
	})
	notificationUseCase := usecase.NewNotificationUseCase(st.notifications, cfg.NotificationPageSize, cfg.NotificationExcludedTypes)

	wsManager := websocket.NewManager(websocket.Sources{
		Conversations: conversationUseCase,
		Notifications: notificationUseCase,
		Memberships:   membershipUseCase,
	})
	wsManager.Start(ctx)

	boostUseCase.StartSweeper(ctx, cfg.BoostSweepInterval)

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, sarama.NewConfig(),
			events.NewNotificationHandler(notificationUseCase))
		if err != nil {
			logger.Error("failed to create kafka consumer", "brokers", cfg.KafkaBrokers, "error", err)
			os.Exit(1)
		}
		defer consumer.Close()

		go func() {
			logger.Info("consuming notification events", "topic", cfg.KafkaNotificationTopic)
			if err := consumer.Run(ctx, []string{cfg.KafkaNotificationTopic}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("kafka consumer stopped", "error", err)
			}
		}()
	}

	handler.Setup(membershipUseCase, itemUseCase, boostUseCase, conversationUseCase, notificationUseCase)
	handler.SetupHealthHandler(cfg.StoreBackend, wsManager)
	handler.SetupDevTokenHandler()

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	} else {
		e.Use(middleware.CORS())
	}

	ipLimiter := apimiddleware.NewIPRateLimiter(cfg.RequestsPerMinute)
	ipLimiter.StartCleanupRoutine(ctx)
	e.Use(ipLimiter.Middleware())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(st.verifier)
	router.Setup(e, authMiddleware)
	router.SetupDevRouter(e, cfg)
	router.SetupWebSocketRouter(e, handler.NewWebSocketHandler(wsManager, st.verifier, cfg.AllowedOrigins))

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort, "backend", cfg.StoreBackend)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
