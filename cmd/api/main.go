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
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mentorlink/mentorship-platform/internal/chat"
	"github.com/mentorlink/mentorship-platform/internal/config"
	"github.com/mentorlink/mentorship-platform/internal/feed"
	"github.com/mentorlink/mentorship-platform/internal/handler"
	"github.com/mentorlink/mentorship-platform/internal/middleware"
	"github.com/mentorlink/mentorship-platform/internal/profile"
	"github.com/mentorlink/mentorship-platform/internal/realtime"
	"github.com/mentorlink/mentorship-platform/internal/store"
	"github.com/mentorlink/mentorship-platform/internal/store/memory"
	"github.com/mentorlink/mentorship-platform/internal/store/postgres"
	"github.com/mentorlink/mentorship-platform/pkg/logger"
	"github.com/mentorlink/mentorship-platform/pkg/tracing"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "mentorship-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Change feed and record store. Dev mode (no DATABASE_URL) runs fully
	// in-process.
	var (
		chFeed  feed.Feed
		records *store.Store
		ready   handler.ReadyChecker
	)
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, running with in-memory store and feed")
		chFeed = feed.NewMemoryFeed()
		records = memory.New(chFeed)
	} else {
		natsFeed, err := feed.ConnectNATS(ctx, feed.Config{
			URL:   cfg.NATSURL,
			Token: cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsFeed.Close()
		chFeed = natsFeed
		ready = natsFeed

		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to postgres", zap.Error(err))
			os.Exit(1)
		}
		defer pool.Close()
		records = postgres.New(pool, natsFeed)
	}

	// Avatar storage
	if err := os.MkdirAll(cfg.AvatarDir, 0o755); err != nil {
		log.Error("failed to create avatar dir", zap.Error(err))
		os.Exit(1)
	}
	avatarFs := afero.NewBasePathFs(afero.NewOsFs(), cfg.AvatarDir)

	// Services
	chatSvc := chat.NewService(records, log)
	profileSvc := profile.NewService(records.Profiles, records.Mentors, avatarFs, log)

	// Handlers
	healthHandler := handler.NewHealthHandler(ready)
	conversationHandler := handler.NewConversationHandler(chatSvc, log)
	messageHandler := handler.NewMessageHandler(chatSvc, log)
	profileHandler := handler.NewProfileHandler(profileSvc, log)
	gateway := realtime.NewGateway(chatSvc, chFeed, records.Profiles, log)

	// Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/avatars/*", http.StripPrefix("/avatars/", http.FileServer(afero.NewHttpFs(avatarFs))))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationHandler.List)
			r.Post("/", conversationHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Send)
			})
		})

		r.Get("/mentors", profileHandler.Mentors)
		r.Get("/profiles/{id}", profileHandler.Get)
		r.Get("/me/profile", profileHandler.Me)
		r.Put("/me/profile", profileHandler.UpdateMe)
		r.Post("/me/avatar", profileHandler.UploadAvatar)

		r.Get("/ws", gateway.Serve)
	})

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
