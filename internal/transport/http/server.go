package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"inkstream/internal/config"
	"inkstream/internal/database"
	"inkstream/internal/handler"
	"inkstream/internal/queue"
	appredis "inkstream/internal/redis"
	"inkstream/internal/repository"
	"inkstream/internal/service"
	"inkstream/internal/worker"
)

// Run wires the whole service together and blocks until shutdown.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	txRunner := database.NewTxRunner(db)

	// 3. Repositories
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	// 4. Redis: event stream and reconciliation workers. Optional; the API
	// serves without them and counters are still kept transactionally.
	var publisher queue.Publisher
	var manager *worker.Manager
	if cfg.RedisURL != "" {
		redisClient, err := appredis.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()

		if err := redisClient.Ping(ctx); err != nil {
			return fmt.Errorf("failed to reach redis: %w", err)
		}

		publisher = queue.NewPublisher(redisClient.Client)
		consumer := queue.NewConsumer(redisClient.Client)

		workerHandler := worker.NewHandler(postRepo, commentRepo, notifRepo)
		manager = worker.NewManager(consumer, workerHandler, worker.ManagerConfig{
			WorkerCount: cfg.WorkerCount,
		})
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer manager.Stop()
	} else {
		log.Println("REDIS_URL not set, running without reconciliation workers")
	}

	// 5. Services
	postService := service.NewPostService(postRepo, userRepo, commentRepo, notifRepo, txRunner, publisher)
	commentService := service.NewCommentService(commentRepo, postRepo, notifRepo, userRepo, txRunner, publisher)
	likeService := service.NewLikeService(postRepo, notifRepo, txRunner, publisher)
	notificationService := service.NewNotificationService(notifRepo)

	// 6. Handlers
	routerCfg := RouterConfig{
		PostHandler:         handler.NewPostHandler(postService),
		CommentHandler:      handler.NewCommentHandler(commentService),
		LikeHandler:         handler.NewLikeHandler(likeService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		JWTSecret:           cfg.JWTSecret,
	}

	if cfg.MediaConfigured() {
		mediaService, err := service.NewMediaService(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create media service: %w", err)
		}
		routerCfg.MediaHandler = handler.NewMediaHandler(mediaService)
	} else {
		log.Println("S3 not configured, banner upload endpoint disabled")
	}

	// 7. Serve
	srv := &stdhttp.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      NewRouter(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
