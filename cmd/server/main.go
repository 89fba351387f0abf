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

	"github.com/stwalsh4118/property-analyzer/internal/analyzer"
	"github.com/stwalsh4118/property-analyzer/internal/config"
	"github.com/stwalsh4118/property-analyzer/internal/handlers"
	"github.com/stwalsh4118/property-analyzer/internal/logger"
	"github.com/stwalsh4118/property-analyzer/internal/middleware"
	"github.com/stwalsh4118/property-analyzer/internal/services"
	"github.com/stwalsh4118/property-analyzer/internal/session"
	"github.com/stwalsh4118/property-analyzer/internal/web"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env).WithLevel(cfg.Server.LogLevel)
	log.Info("Starting property analyzer", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	client, err := analyzer.NewClient(analyzer.Options{
		BaseURL:    cfg.Analyzer.URL,
		UploadPath: cfg.Analyzer.UploadPath,
	}, log)
	if err != nil {
		log.Fatal("Failed to create analyzer client", err, map[string]interface{}{
			"url": cfg.Analyzer.URL,
		})
	}
	log.Info("Analyzer client configured", map[string]interface{}{
		"url":         cfg.Analyzer.URL,
		"upload_path": cfg.Analyzer.UploadPath,
	})

	// Page sessions live in memory; the sweeper drops idle ones
	ctx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()

	store := session.NewStore(client, cfg.Session.IdleTimeout, log)
	go store.Run(ctx, 0)

	tmpl, err := web.Templates()
	if err != nil {
		log.Fatal("Failed to parse page templates", err, nil)
	}

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	healthHandler := handlers.NewHealthHandler(client, store, cfg.Server.Env)
	handlers.RegisterHealthRoutes(router, healthHandler)

	pageService := services.NewPageService(store, log)
	pageHandler := handlers.NewPageHandler(pageService, cfg.Server.MaxUploadBytes())

	// Only page routes need a session
	pages := router.Group("/", middleware.Session(store))
	handlers.RegisterPageRoutes(pages, pageHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", map[string]interface{}{
		"sessions_dropped": store.Len(),
	})
}
