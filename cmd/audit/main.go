package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mileage-service/common/env"
	"mileage-service/common/logger"
	"mileage-service/common/rabbitmq"
	"mileage-service/common/telemetry"
	"mileage-service/internal/auditstore"
)

type Config struct {
	Store *auditstore.Store
}

func main() {
	// Telemetry first so the logger picks up the OTLP provider
	shutdown, err := telemetry.InitTracer("audit-service", "1.0.0")
	if err != nil {
		fmt.Printf("Failed to initialize tracer: %v\n", err)
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Error("Failed to shutdown tracer", "error", err)
			}
		}()
	}

	logger.InitDefault("audit-service")
	logger.Info("Starting audit service")

	mongoClient, err := connectToMongo()
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	defer func() {
		if err = mongoClient.Disconnect(ctx); err != nil {
			logger.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()

	app := Config{
		Store: auditstore.New(mongoClient),
	}

	rabbitConn, err := rabbitmq.Dial(context.Background(), rabbitmq.OptionsFromEnv())
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ, continuing without consumer", "error", err)
	} else {
		go func() {
			if err := app.ConsumeFromRabbitMQ(rabbitConn); err != nil {
				logger.Error("RabbitMQ consumer error", "error", err)
			}
		}()
		defer func() {
			if err := rabbitConn.Close(); err != nil {
				logger.Error("Error closing RabbitMQ connection", "error", err)
			}
		}()
	}

	webPort := env.Get("WEB_PORT", "80")
	logger.Info("Starting HTTP server", "port", webPort)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", webPort),
		Handler: app.routes(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

func connectToMongo() (*mongo.Client, error) {
	mongoURL, needsAuth := resolveMongoURL()
	clientOptions := options.Client().ApplyURI(mongoURL)
	if needsAuth {
		username := env.Get("MONGO_USERNAME", "admin")
		password := env.Get("MONGO_PASSWORD", "password")
		if username != "" || password != "" {
			clientOptions.SetAuth(options.Credential{
				Username: username,
				Password: password,
			})
		}
	}

	clientOptions.SetMaxPoolSize(50)
	clientOptions.SetMinPoolSize(10)
	clientOptions.SetMaxConnIdleTime(30 * time.Second)

	c, err := mongo.Connect(context.TODO(), clientOptions)
	if err != nil {
		logger.Error("MongoDB connection failed", "error", err)
		return nil, err
	}

	logger.Info("Connected to MongoDB successfully")
	return c, nil
}

func resolveMongoURL() (string, bool) {
	for _, key := range []string{"MONGO_CONNECTION_STRING", "MONGO_URL"} {
		if uri := env.Get(key, ""); uri != "" {
			return uri, false
		}
	}

	host := env.Get("MONGO_HOST", "mongo")
	port := env.Get("MONGO_PORT", "27017")
	return fmt.Sprintf("mongodb://%s:%s", host, port), true
}
