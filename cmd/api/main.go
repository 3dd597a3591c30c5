package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/christopher639/cbc-scholar-hub-sub002/internal/audit"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/auth"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/config"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/db"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/directory"
	httphandler "github.com/christopher639/cbc-scholar-hub-sub002/internal/http"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/http/handlers"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/notify"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/otp"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/phone"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/provider"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/session"

	_ "github.com/lib/pq"
)

func main() {
	// Load .env from CWD so the binary works from the repo root too
	// (env vars override)
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Open directory store connection
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := runMigrations(database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Session and challenge stores live in Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("Failed to ping redis: %v", err)
	}
	cancel()

	// Directory repos (read-only)
	learnerRepo := directory.NewLearnerRepo(database)
	teacherRepo := directory.NewTeacherRepo(database)
	staffRepo := directory.NewStaffRepo(database)
	loader := directory.NewLoader(learnerRepo, teacherRepo, staffRepo)

	// Primary identity provider
	providerClient := provider.NewClient(cfg.ProviderBaseURL)
	bearerVerifier := provider.NewBearerVerifier(cfg.ProviderJWTSecret)

	// Sessions
	sessionStore := session.NewRedisStore(redisClient)
	issuer := session.NewIssuer(sessionStore, loader)

	// OTP step-up
	normalizer := phone.NewNormalizer(cfg.SMSCountryCode)
	dispatcher := notify.NewHTTPDispatcher(cfg.DispatcherBaseURL, cfg.DispatcherAPIKey)
	otpStore := otp.NewRedisStore(redisClient)
	otpService := otp.NewService(otpStore, dispatcher, normalizer, cfg.OTPSalt)

	// Login aggregator
	recorder := audit.NewRecorder(database)
	resolver := auth.NewResolver(learnerRepo, teacherRepo, staffRepo, providerClient)
	loginService := auth.NewService(resolver, providerClient, issuer, recorder)

	// Handlers and router
	authHandler := handlers.NewAuthHandler(loginService, resolver, otpService, issuer, func() config.ChannelPolicy {
		return cfg.OTPChannels
	})
	router := httphandler.NewRouter(authHandler, issuer, bearerVerifier)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// runMigrations runs database migrations using goose
func runMigrations(database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	migrationDir := "internal/db/migrations"
	if info, err := os.Stat(migrationDir); err != nil || !info.IsDir() {
		return fmt.Errorf("migrations directory not found (run from the repo root)")
	}

	absDir, _ := filepath.Abs(migrationDir)
	log.Printf("Running migrations from %s", absDir)

	if err := goose.Up(database, migrationDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
