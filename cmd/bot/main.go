package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/nookly/threadwatch/internal/config"
	"github.com/nookly/threadwatch/internal/dedup"
	"github.com/nookly/threadwatch/internal/drafting"
	"github.com/nookly/threadwatch/internal/llm"
	"github.com/nookly/threadwatch/internal/monitoring"
	"github.com/nookly/threadwatch/internal/notifications"
	"github.com/nookly/threadwatch/internal/scheduler"
	"github.com/nookly/threadwatch/internal/scoring"
	"github.com/nookly/threadwatch/internal/sources"
	"github.com/nookly/threadwatch/internal/storage"
	"github.com/nookly/threadwatch/internal/store"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// A broken configuration is fatal: the process must not begin polling.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting threadwatch")

	backend, err := newBackend(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	identity, err := dedup.New(backend)
	if err != nil {
		logrus.Fatalf("Failed to load identity store: %v", err)
	}

	threads, err := store.New(backend, cfg.Storage.MaxRecordsPerTier)
	if err != nil {
		logrus.Fatalf("Failed to open tiered store: %v", err)
	}

	// The text service is optional: without it the scorer runs keyword-only
	// and drafting is disabled.
	var textService llm.TextService
	if cfg.AnthropicAPIKey != "" {
		svc, err := llm.NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		if err != nil {
			logrus.Fatalf("Failed to initialize text service: %v", err)
		}
		textService = svc
	} else {
		logrus.Warn("ANTHROPIC_API_KEY not set, running keyword-only scoring without drafts")
	}

	var drafter *drafting.Drafter
	if textService != nil && cfg.Drafting.Enabled {
		drafter = drafting.New(cfg.Drafting, textService)
	}

	var mailer notifications.Mailer
	if cfg.Email.Recipient != "" {
		mailer = notifications.NewService(cfg.Email)
	} else {
		logrus.Warn("No digest recipient configured, digests will not be sent")
	}

	gateway := sources.NewRedditGateway(cfg.RedditClientID, cfg.RedditClientSecret, cfg.Fetch.Limit)
	scorer := scoring.New(cfg, textService)

	monitoringService := monitoring.NewService(cfg, gateway, scorer, identity, threads, drafter, mailer, backend)

	schedulerService := scheduler.NewService(cfg, monitoringService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// HTTP server for health checks and manual triggering
	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler(monitoringService)).Methods("GET")
	router.HandleFunc("/trigger", triggerHandler(monitoringService)).Methods("POST")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func newBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "azure":
		return storage.NewAzureStorage(cfg.Storage.AzureAccount, cfg.Storage.AzureContainer)
	default:
		return storage.NewLocalStorage(cfg.Storage.Path)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func metricsHandler(monitoringService *monitoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(monitoringService.GetMetrics()))
	}
}

func triggerHandler(monitoringService *monitoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			if err := monitoringService.Tick(); err != nil {
				logrus.Errorf("Manual tick failed: %v", err)
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Tick triggered"}`))
	}
}
