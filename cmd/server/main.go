package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/postboard"
	"github.com/klass-lk/postboard/internal/config"
	"github.com/klass-lk/postboard/internal/controller"
	"github.com/klass-lk/postboard/internal/repository"
	"github.com/klass-lk/postboard/internal/service"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Store.DynamoDB != nil {
		cfg.Store.DynamoDB.WithLogger(logger)
	}
	repo, err := repository.New(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	svc := service.NewPostService(repo, time.Now, logger)
	if err := svc.Open(ctx); err != nil {
		_ = repo.Close(context.Background())
		return err
	}
	defer func() {
		if err := svc.Close(context.Background()); err != nil {
			logger.Error("close store", "err", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	server := postboard.New().WithLogger(logger)
	server.SetRuntime(postboard.Runtime(cfg.Runtime))
	server.SetBasePath(cfg.BasePath)
	if len(cfg.CORSOrigins) > 0 {
		server.CustomCORS(cfg.CORSOrigins,
			[]string{"GET", "POST", "OPTIONS"},
			[]string{"Origin", "Content-Type", postboard.RequestIDHeader},
			12*time.Hour)
	} else {
		server.DefaultCORS()
	}

	server.Health(func() any {
		return map[string]any{"store": cfg.Store.Backend, "version": svc.Version()}
	})
	posts := controller.NewPostController(svc, postboard.NewMemoryCacheService(), cfg.CacheTTL)
	if cfg.CacheTTL > 0 && !posts.CachesList() {
		logger.Info("list cache off, store backend is shared", "store", cfg.Store.Backend)
	}
	server.RegisterController("/posts", posts)

	logger.Info("starting postboard", "runtime", cfg.Runtime, "store", cfg.Store.Backend, "base_path", cfg.BasePath)
	return server.StartContext(ctx, cfg.Port)
}
