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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantrychef/internal/api"
	"pantrychef/internal/config"
	"pantrychef/internal/engine"
	"pantrychef/internal/logging"
	"pantrychef/internal/platform/scanner"
	"pantrychef/internal/recipe"
	"pantrychef/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := recipe.Connect(cfg.Database.URL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	recipeStore, err := recipe.NewPostgresStore(db)
	if err != nil {
		logger.Fatal("failed to initialize recipe store", zap.Error(err))
	}

	userStore, err := user.NewPostgresStore(db)
	if err != nil {
		logger.Fatal("failed to initialize user store", zap.Error(err))
	}

	eng := engine.New(recipeStore, engine.DefaultTables(), engine.CacheConfig{
		TTL:             cfg.Cache.TTL,
		MaxSize:         cfg.Cache.MaxSize,
		CleanupInterval: cfg.Cache.CleanupInterval,
	}, logger)

	decoder := scanner.NewClient(cfg.Scanner.BaseURL, cfg.Scanner.Timeout)

	handler := api.NewHandler(eng, recipeStore, userStore, decoder, logger)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:8081"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.POST("/suggestRecipes", handler.SuggestRecipes)
	r.POST("/scanBarcode", handler.ScanBarcode)
	r.GET("/cache/stats", handler.CacheStats)
	r.POST("/users/register", handler.Register)
	r.POST("/users/login", handler.Login)
	r.GET("/users/:username", handler.GetProfile)
	r.PUT("/users/:username", handler.UpdateProfile)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
