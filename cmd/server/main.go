package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"neo-ogm/internal/domain"
	"neo-ogm/internal/graph"
	"neo-ogm/internal/mapper"
	"neo-ogm/internal/metadata"
	"neo-ogm/pkg/config"
	apperrors "neo-ogm/pkg/errors"
	"neo-ogm/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting mapping API server...")

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(apperrors.NewGraphConnectionFailed(cfg.Neo4jURI, err)))
	}

	repo := graph.NewRepository(driver,
		graph.WithDatabase(cfg.Neo4jDatabase),
		graph.WithTimeout(cfg.QueryTimeout),
		graph.WithConcurrency(cfg.FetchConcurrency),
	)
	defer repo.Close()

	// Verify Neo4j connection
	ctx := context.Background()
	if err := repo.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(apperrors.NewGraphConnectionFailed(cfg.Neo4jURI, err)))
	}

	// Register the mapped types
	registry := metadata.NewRegistry()
	if err := domain.Register(registry); err != nil {
		log.Fatal("Failed to register domain types", zap.Error(err))
	}
	if missing := registry.Unhydrated(); len(missing) > 0 {
		log.Warn("Types referenced but never registered", zap.Strings("types", missing))
	}
	m := mapper.New(registry)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(log, m, repo)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started",
		zap.String("port", cfg.Port),
		zap.Int("types", len(registry.Types())),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
