package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/queue"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	_ = godotenv.Load()

	if level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(level)
	}

	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		logger.Fatal("RABBITMQ_URL is required")
	}
	queueName := getEnv("RABBITMQ_QUEUE", queue.DefaultQueueName)
	dataDir := getEnv("DATA_DIR", "./data")

	activity, err := queue.OpenActivityLog(dataDir)
	if err != nil {
		logger.Fatalf("Failed to open activity log: %v", err)
	}
	defer activity.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithFields(logrus.Fields{
		"queue":    queueName,
		"data_dir": dataDir,
	}).Info("Booking consumer starting")

	consumer := queue.NewConsumer(url, queueName, activity.Handle, logger)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Consumer stopped: %v", err)
	}

	logger.Info("Booking consumer exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
