package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"noslimites/api/internal/cache"
	"noslimites/api/internal/config"
	"noslimites/api/internal/database"
	"noslimites/api/internal/handler"
	"noslimites/api/internal/push"
	"noslimites/api/internal/queue"
	appredis "noslimites/api/internal/redis"
	"noslimites/api/internal/repository"
	"noslimites/api/internal/service"
	"noslimites/api/internal/worker"
)

// Run wires the whole application together and blocks until shutdown.
func Run() error {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database (runs embedded migrations)
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Redis is optional: without it the catalog cache and push queue are
	// disabled, everything else works.
	var redisClient *appredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = appredis.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		if err := redisClient.Ping(ctx); err != nil {
			return fmt.Errorf("failed to reach redis: %w", err)
		}
		defer redisClient.Close()
	} else {
		log.Println("REDIS_URL not set, running without cache and push queue")
	}

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	magicLinkRepo := repository.NewMagicLinkRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	relationshipRepo := repository.NewRelationshipRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	userLimitRepo := repository.NewUserLimitRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	pushSubRepo := repository.NewPushSubscriptionRepository(db)

	// 5. Services
	var publisher queue.Publisher
	var catalogCache cache.CatalogCache
	if redisClient != nil {
		publisher = queue.NewPublisher(redisClient.Client)
		catalogCache = cache.NewCatalogCache(redisClient.Client)
	}

	var mediaService *service.MediaService
	if cfg.R2AccountID != "" {
		mediaService, err = service.NewMediaService(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to init media storage: %w", err)
		}
	} else {
		log.Println("R2 not configured, avatar uploads disabled")
	}

	deviceService := service.NewDeviceService(deviceRepo, cfg)
	authService := service.NewAuthService(magicLinkRepo, userRepo, deviceService, nil, cfg)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, publisher)
	relationshipService := service.NewRelationshipService(db, relationshipRepo, blockRepo, userRepo, userLimitRepo, notificationService, cfg)
	limitService := service.NewLimitService(db, relationshipRepo, userLimitRepo, notificationService)
	catalogService := service.NewCatalogService(db, catalogRepo, catalogCache)
	pushSubService := service.NewPushSubscriptionService(pushSubRepo)

	var userService *service.UserService
	if mediaService != nil {
		userService = service.NewUserService(userRepo, mediaService)
	} else {
		userService = service.NewUserService(userRepo, nil)
	}

	// Seed the catalog at startup; first request would also do it, but
	// failing fast here surfaces broken DB permissions immediately.
	if err := catalogService.EnsureSeeded(ctx); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	// Merge duplicate catalog rows left behind by seeders that predate
	// content-derived IDs, remapping user choices onto the surviving rows.
	if err := catalogService.Reconcile(ctx); err != nil {
		return fmt.Errorf("failed to reconcile catalog: %w", err)
	}

	// 6. Push delivery workers (only with Redis and VAPID keys)
	var workerManager *worker.Manager
	pushService := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	if redisClient != nil && pushService.Configured() {
		consumer := queue.NewConsumer(redisClient.Client)
		workerHandler := worker.NewHandler(pushSubRepo, pushService)
		workerManager = worker.NewManager(consumer, workerHandler, worker.DefaultManagerConfig())
		if err := workerManager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start push workers: %w", err)
		}
		defer workerManager.Stop()
	} else {
		log.Println("Push delivery disabled (needs Redis and VAPID keys)")
	}

	// 7. Handlers and router
	router := NewRouter(RouterConfig{
		AuthHandler:         handler.NewAuthHandler(authService, deviceService, cfg),
		UserHandler:         handler.NewUserHandler(userService),
		RelationshipHandler: handler.NewRelationshipHandler(relationshipService),
		CatalogHandler:      handler.NewCatalogHandler(catalogService),
		LimitHandler:        handler.NewLimitHandler(limitService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		PushHandler:         handler.NewPushHandler(pushSubService, cfg),
		JWTSecret:           cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 8. Serve until interrupted, then drain
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
