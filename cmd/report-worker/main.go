package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"skiipper/internal/config"
	"skiipper/internal/logger"
	"skiipper/internal/queue"
	"skiipper/internal/service"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(logger.Config{Debug: cfg.Debug, LogDir: cfg.LogDir, Name: "report-worker"}); err != nil {
		logger.Fatal("Failed to initialize logger", "error", err)
	}
	logger.Info("Starting report-worker")

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Configuration validation failed", "error", err)
	}
	if !cfg.QueueEnabled() {
		logger.Fatal("AMQP_URL is required for the report worker")
	}

	emailService, err := service.NewEmailService(context.Background(), cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize email service", "error", err)
	}
	if !emailService.IsEnabled() {
		logger.Fatal("SES_FROM_EMAIL is required for the report worker")
	}

	client, err := queue.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Fatal("Failed to initialize AMQP client", "error", err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeWeeklyReports(ctx, func(ctx context.Context, msg *queue.WeeklyReportMessage) error {
			logger.Debug("Sending weekly report", "email", msg.Email, "skips", msg.Skips)
			return emailService.SendWeeklyReport(ctx, msg.Email, msg.Skips, msg.Savings)
		})
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down report-worker...")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Report worker stopped", "error", err)
		client.Close()
		os.Exit(1)
	}
	logger.Info("Report worker stopped")
}
