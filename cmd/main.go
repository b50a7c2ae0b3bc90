/*
Package main is the entry point for the socialfeed server.

It loads configuration, initializes the global logging system, connects PostgreSQL,
Redis and the avatar bucket, wires the identity provider and the client flows into the
HTTP router, and shuts everything down gracefully on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"socialfeed/internal/app/authscreen"
	"socialfeed/internal/app/db"
	"socialfeed/internal/app/feed"
	"socialfeed/internal/app/identity"
	"socialfeed/internal/app/mail"
	"socialfeed/internal/app/provision"
	"socialfeed/internal/app/session"
	"socialfeed/internal/app/storage"
	"socialfeed/internal/app/tokens"
	"socialfeed/internal/configs"
	"socialfeed/internal/handler"
	"socialfeed/internal/pkg/logx"
)

const tokenSweepInterval = 5 * time.Minute

func main() {
	// A missing .env file is fine; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("redis", cfg.RedisAddr != "").
		Bool("smtp", cfg.SMTPHost != "").
		Bool("popup_sign_in", cfg.PopupEnabled()).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to database")
	}
	defer pool.Close()
	queries := db.New(pool)

	var tokenStore tokens.Store
	if cfg.RedisAddr != "" {
		client, err := tokens.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logx.Fatal(err, "Failed to connect to Redis", "addr", cfg.RedisAddr)
		}
		defer client.Close()
		tokenStore = tokens.NewRedisStore(client, "socialfeed:")
	} else {
		logx.Warn("REDIS_ADDR not set, using in-memory token store")
		memory := tokens.NewMemory()
		go sweepTokens(ctx, memory)
		tokenStore = memory
	}

	storageService, err := storage.NewStorageService(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3Region:          cfg.S3Region,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		PublicBaseURL:     cfg.S3PublicBaseURL,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize storage service")
	}

	var resetMailer identity.ResetMailer = mail.LogSender{}
	if cfg.SMTPHost != "" {
		resetMailer = mail.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		logx.Warn("SMTP_HOST not set, password reset links are logged instead of mailed")
	}

	provider := identity.NewLocal(identity.LocalConfig{
		MinPasswordEntropy: cfg.PasswordMinEntropy,
		ResetURL:           cfg.PublicURL + "/reset",
		ResetTTL:           cfg.ResetTokenTTL,
	}, queries, tokenStore, resetMailer)

	popup := identity.NewPopup(
		identity.GoogleConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
		queries, tokenStore, nil,
	)

	flow := provision.NewFlow(provider, storageService)
	sessions := session.NewManager(cfg.SessionIdleTTL, session.DefaultEvictInterval)

	deps := &handler.AppDeps{
		Config:   cfg,
		Sessions: sessions,
		Auth:     authscreen.NewScreen(provider, flow, provider, popup),
		Profile:  flow,
		Feed:     feed.NewScreen(provider),
	}

	router, stopLimiters := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("socialfeed server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	stopLimiters()
	sessions.Shutdown()

	logx.Info("Server gracefully stopped.")
}

// sweepTokens drops expired in-memory tokens until ctx is done.
func sweepTokens(ctx context.Context, memory *tokens.Memory) {
	ticker := time.NewTicker(tokenSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := memory.Sweep(); removed > 0 {
				logx.Debug("Expired tokens swept", "removed", removed)
			}
		}
	}
}
