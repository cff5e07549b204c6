package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/rfialho/paddle/internal/adapters/api"
	"github.com/rfialho/paddle/internal/adapters/database"
	"github.com/rfialho/paddle/internal/adapters/ws"
	"github.com/rfialho/paddle/internal/domain/auction"
	"github.com/rfialho/paddle/internal/domain/roster"
	pkgdb "github.com/rfialho/paddle/pkg/database"
	pkgevents "github.com/rfialho/paddle/pkg/events"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load environment variables (local overrides .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Initialize Postgres Connection Pool
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Error("DATABASE_URL is not set")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Error("Unable to create connection pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if pingErr := pool.Ping(ctx); pingErr != nil {
		logger.Error("Unable to ping database", "error", pingErr)
		os.Exit(1)
	}
	logger.Info("Postgres Connected")

	// 2. Connect RabbitMQ
	rabbitURL := os.Getenv("RABBITMQ_URL")
	if rabbitURL == "" {
		logger.Error("RABBITMQ_URL is not set")
		os.Exit(1)
	}

	amqpConn, err := amqp.Dial(rabbitURL)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()
	logger.Info("RabbitMQ Connected")

	rabbitPublisher, err := pkgevents.NewRabbitMQPublisher(amqpConn)
	if err != nil {
		logger.Error("Failed to create RabbitMQ publisher", "error", err)
		os.Exit(1)
	}
	defer rabbitPublisher.Close()

	// 3. Initialize Repositories (Infrastructure Layer)
	txManager := pkgdb.NewPostgresTransactionManager(pool, 3*time.Second)
	teamRepo := database.NewPostgresTeamRepository(pool)
	playerRepo := database.NewPostgresPlayerRepository(pool)
	outboxRepo := database.NewPostgresOutboxRepository(pool)

	// 4. Initialize Services (Domain Layer)
	hub := ws.NewHub(ws.DefaultConfig(), logger)
	coordinator := auction.NewCoordinator(txManager, teamRepo, playerRepo, outboxRepo, hub, logger)
	hub.SetCoordinator(coordinator)

	rosterService := roster.NewService(teamRepo, playerRepo)

	// 5. Initialize API Handler and Router
	apiHandler := api.NewHandler(rosterService, logger)

	router := chi.NewRouter()
	apiHandler.Routes(router)
	router.Get("/ws", hub.ServeWS)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "http://localhost:3001"
	}
	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(router)

	// 6. Start Outbox Relay
	outboxRelay := pkgevents.NewOutboxRelay(
		outboxRepo,
		rabbitPublisher,
		txManager,
		10,            // batch size
		1*time.Second, // interval
		pkgevents.ExchangeName,
		logger,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting Hub...")
		return hub.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("Starting Outbox Relay...")
		return outboxRelay.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("Starting Draft Auction API", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
