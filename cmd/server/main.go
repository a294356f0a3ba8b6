package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"skiipper/internal/config"
	"skiipper/internal/database"
	"skiipper/internal/handlers"
	"skiipper/internal/ledger"
	"skiipper/internal/logger"
	"skiipper/internal/queue"
	"skiipper/internal/repository"
	"skiipper/internal/security"
	"skiipper/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if err := logger.Init(logger.Config{Debug: cfg.Debug, LogDir: cfg.LogDir, Name: "server"}); err != nil {
		logger.Fatal("Failed to initialize logger", "error", err)
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", "error", err)
	}
	loc, _ := cfg.Location()

	// Serve the readiness endpoint while the rest starts up
	startup := handlers.NewStartupStatus()
	mux := http.NewServeMux()
	mux.Handle("GET /healthz", startup)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.Logging(startup.Gate(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "addr", "http://localhost"+addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", "error", err)
		}
	}()

	// Initialize database with config (supports sqlite, postgres, mysql)
	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()
	logger.Info("Database connection established", "type", cfg.DatabaseType)
	startup.CompleteStep(handlers.StepDatabase)

	startup.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}
	logger.Info("Migrations completed successfully")
	startup.CompleteStep(handlers.StepMigrations)

	startup.SetCurrentStep(handlers.StepServices)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	habitRepo := repository.NewHabitRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Initialize services
	var tokens *security.TokenIssuer
	var csrf *security.CSRFGenerator
	if cfg.SessionSecret != "" {
		tokens = security.NewTokenIssuer(cfg.SessionSecret)
		csrf = security.NewCSRFGenerator(cfg.SessionSecret)
	} else {
		logger.Warn("SESSION_SECRET not set: bearer tokens and CSRF protection are disabled")
	}
	authService := service.NewAuthService(userRepo, tokens, cfg.AdminEmail, cfg.SessionDuration)

	ledgers := service.NewLedgerStore(cfg.LedgerTTL, ledger.WithLocation(loc))
	authService.OnAuthStateChange(ledgers.DiscardOnSignOut())
	authService.OnAuthStateChange(func(event service.AuthEvent, userID int64, sessionID string) {
		logger.Info("Auth state changed", "event", event, "user_id", userID)
	})

	emailService, err := service.NewEmailService(context.Background(), cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize email service", "error", err)
	}

	var publisher service.ReportPublisher
	if cfg.QueueEnabled() {
		client, err := queue.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Fatal("Failed to initialize AMQP client", "error", err)
		}
		defer client.Close()
		publisher = client
		logger.Info("Weekly reports go through AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}
	var mailer service.ReportMailer
	if emailService.IsEnabled() {
		mailer = emailService
	}
	reportService := service.NewReportService(statsRepo, publisher, mailer, loc)
	habitService := service.NewHabitService(habitRepo, loc)
	backupService := service.NewBackupService(db)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"apple": {
			Name:  "apple",
			Label: "Apple",
			Config: &oauth2.Config{
				ClientID:     cfg.AppleClientID,
				ClientSecret: cfg.AppleClientSecret,
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://appleid.apple.com/auth/authorize",
					TokenURL: "https://appleid.apple.com/auth/token",
				},
				Scopes: []string{"name", "email"},
			},
			AuthParams: map[string]string{
				"response_mode": "query",
			},
		},
	}

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService, ledgers, csrf, security.NewRateLimiter(10, time.Minute))
	handlers.RegisterRoutes(mux, handlers.Routes{
		Middleware: middleware,
		Auth:       handlers.NewAuthHandler(authService, emailService, ledgers, oauthProviders, cfg.OAuthRedirectBaseURL),
		Ledger:     handlers.NewLedgerHandler(ledgers, reportService, cfg.GrowthRate),
		Habits:     handlers.NewHabitHandler(habitService),
		Admin:      handlers.NewAdminHandler(reportService, backupService, userRepo, loc),
	})
	startup.CompleteStep(handlers.StepServices)

	// Start background cleanup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runCleanup(ctx, authService, ledgers)

	startup.MarkReady()
	logger.Info("Server ready")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
}

// runCleanup periodically removes expired sessions and idle ledgers
func runCleanup(ctx context.Context, authService *service.AuthService, ledgers *service.LedgerStore) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := authService.CleanupExpiredSessions(); err != nil {
				logger.Error("Error cleaning up expired sessions", "error", err)
			} else if n > 0 {
				logger.Info("Expired sessions cleaned up", "count", n)
			}
			ledgers.Cleanup()
		}
	}
}
