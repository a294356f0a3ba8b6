package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"skiipper/internal/cli"
	"skiipper/internal/config"
	"skiipper/internal/database"
	"skiipper/internal/logger"
	"skiipper/internal/queue"
	"skiipper/internal/repository"
	"skiipper/internal/service"
)

var CLI struct {
	Version kong.VersionFlag
	Debug   bool `help:"Enable debug logging."`

	Export      cli.ExportCmd      `cmd:"" help:"Export the database to a JSON backup."`
	Import      cli.ImportCmd      `cmd:"" help:"Restore a JSON backup into an empty database."`
	Stats       cli.StatsCmd       `cmd:"" help:"Show per-user skips and savings for a week."`
	SendReports cli.SendReportsCmd `cmd:"" help:"Send the weekly report to every user."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("skiipctl"),
		kong.Description("Skiipper operator tool: backups and weekly reports"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	cfg := config.Load()
	if err := logger.Init(logger.Config{Debug: cfg.Debug || CLI.Debug, LogDir: cfg.LogDir, Name: "skiipctl"}); err != nil {
		fail(err)
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}
	loc, _ := cfg.Location()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		fail(fmt.Errorf("failed to initialize database: %w", err))
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		fail(fmt.Errorf("failed to run migrations: %w", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reports, closeReports, err := newReportService(ctx, cfg, db, loc)
	if err != nil {
		fail(err)
	}
	defer closeReports()

	appCtx := &cli.Context{
		Ctx:     ctx,
		Backups: service.NewBackupService(db),
		Reports: reports,
		Loc:     loc,
		Out:     os.Stdout,
		Now:     time.Now,
	}

	if err := kctx.Run(appCtx); err != nil {
		fail(err)
	}
}

// newReportService wires the same transports as the server: the queue when
// AMQP_URL is set, otherwise SES when SES_FROM_EMAIL is set.
func newReportService(ctx context.Context, cfg *config.Config, db *database.DB, loc *time.Location) (*service.ReportService, func(), error) {
	closeFn := func() {}

	var publisher service.ReportPublisher
	if cfg.QueueEnabled() {
		client, err := queue.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		publisher = client
		closeFn = func() { client.Close() }
	}

	var mailer service.ReportMailer
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("failed to initialize email service: %w", err)
	}
	if emailService.IsEnabled() {
		mailer = emailService
	}

	return service.NewReportService(repository.NewStatsRepository(db), publisher, mailer, loc), closeFn, nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
