// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vendalia/opcenter/internal/config"
	"github.com/vendalia/opcenter/internal/handler"
	"github.com/vendalia/opcenter/internal/llm"
	"github.com/vendalia/opcenter/internal/middleware"
	natsclient "github.com/vendalia/opcenter/internal/nats"
	"github.com/vendalia/opcenter/internal/processor"
	"github.com/vendalia/opcenter/internal/scheduler"
	"github.com/vendalia/opcenter/internal/service"
	"github.com/vendalia/opcenter/internal/store"
	"github.com/vendalia/opcenter/pkg/logger"
	"github.com/vendalia/opcenter/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting operation center API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "opcenter", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the durable store
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open store", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Connect to NATS when an event stream is configured
	var natsClient *natsclient.Client
	var streamManager *natsclient.StreamManager
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()

		streamManager = natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure stream", zap.Error(err))
			os.Exit(1)
		}
	}

	// Select the processing step: external delivery function when
	// configured, otherwise the built-in bot responder.
	var step processor.Step
	if cfg.ProcessorURL != "" {
		step = processor.NewHTTPStep(cfg.ProcessorURL, cfg.ServiceToken, cfg.DrainPassTimeout-5*time.Second)
	} else {
		var llmClient llm.Client
		if cfg.AnthropicAPIKey != "" && cfg.DefaultLLM != string(llm.ProviderOpenAI) {
			llmClient, err = llm.NewClient(llm.ProviderAnthropic, cfg.AnthropicAPIKey)
		} else if cfg.OpenAIAPIKey != "" {
			llmClient, err = llm.NewClient(llm.ProviderOpenAI, cfg.OpenAIAPIKey)
		} else {
			err = fmt.Errorf("no PROCESSOR_URL and no LLM API key configured")
		}
		if err != nil {
			log.Error("failed to configure processing step", zap.Error(err))
			os.Exit(1)
		}
		step = processor.NewResponder(st, llmClient, streamManager, cfg.SystemPrompt, log)
	}

	// Core services
	var events service.EventPublisher
	if streamManager != nil {
		events = streamManager
	}
	intake := service.NewIntake(st, log)
	lifecycle := service.NewLifecycle(st, events, log)
	drainer := service.NewDrainer(st, step, cfg.DrainBatchSize, log)
	sweeper := service.NewSweeper(st, log)
	sched := scheduler.New(drainer, cfg.DrainInterval, cfg.DrainPassTimeout, log)

	// Handlers
	healthHandler := handler.NewHealthHandler(st, natsClient)
	conversationHandler := handler.NewConversationHandler(intake, lifecycle, st, log)
	messageHandler := handler.NewMessageHandler(intake, log)
	queueHandler := handler.NewQueueHandler(sched, sweeper, log)

	// Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.ServiceToken))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/queue", func(r chi.Router) {
			r.Use(middleware.RequireScope(middleware.ScopeQueueWrite))
			r.Post("/process", queueHandler.Process)
			r.Post("/cleanup", queueHandler.Cleanup)
			r.Post("/scheduler/start", queueHandler.SchedulerStart)
			r.Post("/scheduler/stop", queueHandler.SchedulerStop)
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/", conversationHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Post("/status", conversationHandler.Transition)
				r.Post("/seller", conversationHandler.AssignSeller)
				r.Post("/fallback", conversationHandler.SetFallback)

				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Send)
			})
		})
	})

	// Start the periodic drain loop
	sched.Start()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
