package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgconn"
	_ "github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"mileage-service/common/env"
	"mileage-service/common/logger"
	"mileage-service/common/rabbitmq"
	"mileage-service/common/telemetry"
	"mileage-service/internal/cache"
	"mileage-service/internal/chatbot"
	"mileage-service/internal/repository"
	"mileage-service/internal/storage"

	"github.com/Azure/go-amqp"
	"github.com/XSAM/otelsql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"
)

const serviceName = "mileage-service"

var counts int64

type Config struct {
	DB            *sql.DB
	Repo          repository.DatabaseRepo
	Redis         *redis.Client
	StatusCache   *cache.StatusCache
	Media         *storage.MediaStore
	Bot           *chatbot.Bot
	JWTSecret     string
	JWTExpiry     time.Duration
	RefreshExpiry time.Duration
	RabbitConn    *amqp.Conn
	RabbitSession *amqp.Session
}

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	// Telemetry first so the logger picks up the OTLP provider
	shutdown, err := telemetry.InitTracer(serviceName, "1.0.0")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize tracer: %v\n", err)
	}

	isDev := env.Get("APP_ENV", "development") == "development"
	if err := logger.Init(serviceName, isDev); err != nil {
		logger.InitDefault(serviceName)
	}

	logger.Info("Starting mileage service")

	if shutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Error("Failed to shutdown tracer", zap.Error(err))
			}
		}()
	}

	// connect to DB
	conn := connectToDB()
	if conn == nil {
		logger.Fatal("Cannot connect to database")
	}
	repo := &repository.PostgresDBRepo{DB: conn}

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "default-secret-change-in-production"
		logger.Warn("Using default JWT secret. Set JWT_SECRET environment variable in production!")
	}
	jwtExpiry := env.GetDuration("JWT_EXPIRY", 24*time.Hour)
	refreshExpiry := env.GetDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour)

	// Redis holds the per-day currency status cache
	redisClient, err := cache.ConnectRedis()
	if err != nil {
		logger.Error("Failed to connect to Redis, statuses will be computed on every request", zap.Error(err))
	}
	var statusCache *cache.StatusCache
	if redisClient != nil {
		statusCache = cache.NewStatusCache(redisClient, cache.GetRedisConfig().TTL)
		defer redisClient.Close()
	}

	// RabbitMQ carries audit events to the audit consumer
	rabbitConn, err := connectToRabbitMQ()
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ, continuing without audit events", zap.Error(err))
	} else {
		defer func() {
			if err := rabbitConn.Close(); err != nil {
				logger.Error("Error closing RabbitMQ connection", zap.Error(err))
			}
		}()
	}

	var rabbitSession *amqp.Session
	if rabbitConn != nil {
		sessCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rabbitSession, err = rabbitConn.NewSession(sessCtx, nil)
		cancel()
		if err != nil {
			logger.Warn("Failed to open reusable RabbitMQ session", zap.Error(err))
			rabbitSession = nil
		}
	}

	// Object storage for safety media is optional
	media, err := storage.NewMediaStoreFromEnv()
	if err != nil {
		logger.Warn("Safety media storage not configured", zap.Error(err))
	}

	app := Config{
		DB:            conn,
		Repo:          repo,
		Redis:         redisClient,
		StatusCache:   statusCache,
		Media:         media,
		Bot:           chatbot.New(chatbot.DefaultKnowledgeBase(), chatbot.DefaultFallback),
		JWTSecret:     jwtSecret,
		JWTExpiry:     jwtExpiry,
		RefreshExpiry: refreshExpiry,
		RabbitConn:    rabbitConn,
		RabbitSession: rabbitSession,
	}

	webPort := env.Get("WEB_PORT", "80")
	logger.Info("Starting HTTP server",
		zap.String("port", webPort),
		zap.Duration("jwt_expiry", jwtExpiry),
		zap.Duration("refresh_expiry", refreshExpiry),
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", webPort),
		Handler: app.routes(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := otelsql.Open("pgx", dsn, otelsql.WithAttributes(
		semconv.DBSystemPostgreSQL,
	))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	return db, nil
}

func connectToDB() *sql.DB {
	dsn := os.Getenv("DSN")

	for {
		connection, err := openDB(dsn)
		if err != nil {
			logger.Warn("Postgres not yet ready, retrying...",
				zap.Int64("attempt", counts+1),
				zap.Error(err),
			)
			counts++
		} else {
			logger.Info("Connected to Postgres successfully")
			return connection
		}

		if counts > 10 {
			logger.Error("Failed to connect to Postgres after 10 attempts", zap.Error(err))
			return nil
		}

		logger.Debug("Backing off for two seconds")
		time.Sleep(2 * time.Second)
		continue
	}
}

func connectToRabbitMQ() (*amqp.Conn, error) {
	return rabbitmq.Dial(context.Background(), rabbitmq.OptionsFromEnv())
}
