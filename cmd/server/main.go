// Package main initializes and starts the todo API server, setting up
// configuration, logging, the MongoDB connection, repositories,
// services and HTTP handlers, and shutting everything down gracefully.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/avetrov/todo-api/internal/config"
	"github.com/avetrov/todo-api/internal/db"
	"github.com/avetrov/todo-api/internal/logger"
	"github.com/avetrov/todo-api/internal/repository"
	"github.com/avetrov/todo-api/internal/server/handler/http"
	"github.com/avetrov/todo-api/internal/service"
	"github.com/avetrov/todo-api/internal/token"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	buildVersion := version
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	buildTimestamp := buildDate
	if buildTimestamp == "" {
		buildTimestamp = "N/A"
	}
	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildTimestamp)

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if options.TokenSecret == "" {
		zapLogger.Fatal("TOKEN_SECRET must be set")
	}

	// Initialize the MongoDB connection and indexes.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := db.Connect(ctx, options.MongoURI)
	cancel()
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	database := client.Database(options.Database)

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	err = db.EnsureIndexes(ctx, database)
	cancel()
	if err != nil {
		zapLogger.Fatal("cannot create indexes", zap.Error(err))
	}

	// Initialize repositories for users and todos.
	userRepo := repository.NewMongoUserRepository(database)
	todoRepo := repository.NewMongoTodoRepository(database)

	// Initialize business-logic services.
	tokenService := token.New(options.TokenSecret)
	authService := service.NewAuthService(userRepo, tokenService)
	todoService := service.NewTodoService(todoRepo)

	// Create HTTP handlers for the account and todo endpoints.
	authHandler := &http.AuthHandler{AuthService: authService}
	todoHandler := &http.TodoHandler{TodoService: todoService}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, todoHandler, authService, zapLogger)

	server := &nethttp.Server{
		Addr:         options.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
		if err := server.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for SIGINT/SIGTERM, then drain in-flight requests and close
	// the database client.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server shutting down")
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}
	if err := client.Disconnect(ctx); err != nil {
		zapLogger.Error("mongo disconnect failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
