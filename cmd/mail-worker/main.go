package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SundayYogurt/image_service/config"
	"github.com/SundayYogurt/image_service/infra/logging"
	"github.com/SundayYogurt/image_service/infra/queue"
	mailqueue "github.com/SundayYogurt/image_service/internal/api/queue"
	"github.com/SundayYogurt/image_service/internal/clients/smtp"
)

func main() {
	// ---------- Load Config ----------
	cfg, err := config.LoadWorker()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Env).With("service", "mail-worker")
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("mail worker stopped")
}

func run(cfg config.Config, logger *slog.Logger) error {
	logger.Info("mail worker starting",
		"broker", cfg.KafkaBroker,
		"topic", cfg.KafkaTopic,
		"group", cfg.KafkaGroupID,
	)

	// ---------- Init Handler ----------
	sender := smtp.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	handler := mailqueue.NewMailHandler(sender, logger)

	// ---------- Init Kafka Consumer ----------
	consumer := queue.NewKafkaConsumer(queue.ConsumerConfig{
		Broker:   cfg.KafkaBroker,
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.KafkaGroupID,
		Username: cfg.KafkaUsername,
		Password: cfg.KafkaPassword,
		TLS:      cfg.KafkaTLS,
	}, handler, logger)
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Warn("consumer close", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------- Start Listening ----------
	return consumer.Listen(ctx)
}
