package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"remark-go/internal/api/handler"
	"remark-go/internal/api/middleware"
	"remark-go/internal/api/router"
	"remark-go/internal/config"
	"remark-go/internal/infra/database"
	infraES "remark-go/internal/infra/elasticsearch"
	infraKafka "remark-go/internal/infra/kafka"
	infraMinio "remark-go/internal/infra/minio"
	infraRedis "remark-go/internal/infra/redis"
	"remark-go/internal/repository"
	"remark-go/internal/service"
	"remark-go/pkg/logger"

	_ "remark-go/api/openapi"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title remark-go API
// @version 1.0
// @description Comment threads, users and reactions for embeddable comment widgets

// @host 127.0.0.1:8000
// @BasePath /api/v1

func main() {
	configPath := os.Getenv("REMARK_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(
		cfg.Log.Level,
		cfg.Log.Format,
		cfg.Log.Output,
		cfg.Log.FilePath,
	); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	if err := database.AutoMigrate(); err != nil {
		logger.Fatal("Failed to auto migrate", zap.Error(err))
	}

	// Redis is optional; without it users are read from the database
	var userCache service.Cache
	if err := infraRedis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis init failed, user cache disabled", zap.Error(err))
	} else {
		defer infraRedis.Close()
		userCache = infraRedis.SharedCache()
	}

	var avatars service.AvatarStore
	if err := infraMinio.Init(&cfg.MinIO); err != nil {
		logger.Warn("MinIO init failed, avatar upload disabled", zap.Error(err))
	} else {
		avatars = infraMinio.NewAvatarStore(cfg.MinIO)
	}

	var events service.EventPublisher
	if err := infraKafka.InitProducer(&cfg.Kafka); err != nil {
		logger.Warn("Kafka producer init failed, comment events disabled", zap.Error(err))
	} else {
		defer infraKafka.CloseProducer()
		events = infraKafka.CommentEventWriter{Topic: cfg.Kafka.CommentTopic()}
	}

	// search falls back to the database when Elasticsearch is unavailable
	var index service.CommentIndex
	if err := infraES.Init(&cfg.Elasticsearch); err != nil {
		logger.Warn("Elasticsearch init failed, search will fallback to DB", zap.Error(err))
	} else {
		defer infraES.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := infraES.EnsureCommentsIndex(ctx, cfg.Elasticsearch.CommentIndex()); err != nil {
			logger.Warn("Elasticsearch index init failed", zap.Error(err))
		}
		cancel()
		index = infraES.CommentIndex{Name: cfg.Elasticsearch.CommentIndex()}
	}

	gin.SetMode(cfg.App.Mode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())

	db := database.Get()
	userRepo := repository.NewUserRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reactionRepo := repository.NewReactionRepository(db)

	userService := service.NewUserService(userRepo, userCache, avatars, cfg.Redis.UserTTLDuration())
	commentService := service.NewCommentService(commentRepo, reactionRepo, userService, events)
	reactionService := service.NewReactionService(reactionRepo, commentRepo, userService)
	searchService := service.NewSearchService(index, commentRepo)

	commentHandler := handler.NewCommentHandler(commentService, searchService)
	userHandler := handler.NewUserHandler(userService)
	reactionHandler := handler.NewReactionHandler(reactionService)

	r.GET("/healthz", healthCheckHandler)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	router.Setup(r, commentHandler, userHandler, reactionHandler, limiter)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.CORS(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("mode", cfg.App.Mode),
		zap.String("addr", addr),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}

func healthCheckHandler(c *gin.Context) {
	cfg := config.Get()

	status := http.StatusOK
	checks := gin.H{"database": "ok"}
	if db := database.Get(); db == nil {
		status, checks["database"] = http.StatusServiceUnavailable, "not initialized"
	} else if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status, checks["database"] = http.StatusServiceUnavailable, "unreachable"
	}

	c.JSON(status, gin.H{
		"status":    http.StatusText(status),
		"checks":    checks,
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   cfg.App.Name,
		"version":   cfg.App.Version,
	})
}
