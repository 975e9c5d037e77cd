// microboard/main.go
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"microboard/config"
	"microboard/database"
	"microboard/handlers"
	"microboard/models"
	"microboard/utils"
)

type Application struct {
	db          *database.DatabaseService
	rateLimiter *models.RateLimiter
	sessions    *models.SessionStore
	logger      *slog.Logger
	storage     utils.Storage
}

// Methods to satisfy the handlers.App interface
func (a *Application) DB() *database.DatabaseService    { return a.db }
func (a *Application) RateLimiter() *models.RateLimiter { return a.rateLimiter }
func (a *Application) Sessions() *models.SessionStore   { return a.sessions }
func (a *Application) Logger() *slog.Logger             { return a.logger }
func (a *Application) Storage() utils.Storage           { return a.storage }

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	saltBytes := make([]byte, 32)
	if _, err := rand.Read(saltBytes); err != nil {
		logger.Error("Failed to generate tripcode salt", "error", err)
		os.Exit(1)
	}
	utils.TripSalt = utils.GetEnv("MB_TRIP_SALT", hex.EncodeToString(saltBytes))

	// --- External Configuration ---
	port := utils.GetEnv("MB_PORT", "8080")
	dbPath := utils.GetEnv("MB_DB_PATH", "./microboard.db?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")

	rateLimitEvery, err := time.ParseDuration(utils.GetEnv("MB_RATE_EVERY", config.DefaultRateLimitEvery))
	if err != nil {
		logger.Warn("Invalid MB_RATE_EVERY duration, using default", "default", config.DefaultRateLimitEvery)
		rateLimitEvery, _ = time.ParseDuration(config.DefaultRateLimitEvery)
	}
	rateLimitBurst, err := strconv.Atoi(utils.GetEnv("MB_RATE_BURST", strconv.Itoa(config.DefaultRateLimitBurst)))
	if err != nil {
		logger.Warn("Invalid MB_RATE_BURST integer, using default", "default", config.DefaultRateLimitBurst)
		rateLimitBurst = config.DefaultRateLimitBurst
	}
	rateLimitPrune, err := time.ParseDuration(utils.GetEnv("MB_RATE_PRUNE", config.DefaultRateLimitPrune))
	if err != nil {
		rateLimitPrune, _ = time.ParseDuration(config.DefaultRateLimitPrune)
	}
	rateLimitExpire, err := time.ParseDuration(utils.GetEnv("MB_RATE_EXPIRE", config.DefaultRateLimitExpire))
	if err != nil {
		rateLimitExpire, _ = time.ParseDuration(config.DefaultRateLimitExpire)
	}
	sessionTTL, err := time.ParseDuration(utils.GetEnv("MB_SESSION_TTL", config.DefaultSessionTTL))
	if err != nil {
		sessionTTL, _ = time.ParseDuration(config.DefaultSessionTTL)
	}

	dbService, err := database.InitDB(dbPath, logger)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbService.DB.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	// Seed the first superadmin from the environment if it does not exist.
	if adminUser := utils.GetEnv("MB_ADMIN_USER", ""); adminUser != "" {
		if _, err := dbService.GetAccount(adminUser); errors.Is(err, database.ErrNotFound) {
			hash, herr := utils.HashPassword(utils.GetEnv("MB_ADMIN_PASS", ""))
			if herr != nil {
				logger.Error("Failed to hash admin password", "error", herr)
				os.Exit(1)
			}
			if _, cerr := dbService.CreateAccount(adminUser, hash, models.RoleSuperAdmin); cerr != nil {
				logger.Error("Failed to seed admin account", "error", cerr)
				os.Exit(1)
			}
			logger.Info("Seeded superadmin account", "username", adminUser)
		}
	}

	// --- Storage Service Init ---
	var storageService utils.Storage
	if utils.GetEnv("MB_S3_ENABLED", "false") == "true" {
		endpoint := utils.GetEnv("MB_S3_ENDPOINT", "")
		accessKey := utils.GetEnv("MB_S3_ACCESS_KEY", "")
		secretKey := utils.GetEnv("MB_S3_SECRET_KEY", "")
		bucket := utils.GetEnv("MB_S3_BUCKET", "")
		region := utils.GetEnv("MB_S3_REGION", "us-east-1")
		publicURL := utils.GetEnv("MB_S3_PUBLIC_URL", "")
		useSSL := utils.GetEnv("MB_S3_USE_SSL", "true") == "true"

		storageService, err = utils.NewS3Storage(endpoint, accessKey, secretKey, bucket, region, publicURL, useSSL)
		if err != nil {
			logger.Error("Failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		logger.Info("S3 Storage initialized", "endpoint", endpoint, "bucket", bucket)
	} else {
		uploadDir := utils.GetEnv("MB_UPLOAD_DIR", "./uploads")
		if err := os.MkdirAll(uploadDir, 0755); err != nil {
			logger.Error("FATAL: Could not create uploads directory", "error", err)
			os.Exit(1)
		}
		storageService = &utils.LocalStorage{UploadDir: uploadDir}
		logger.Info("Local Storage initialized", "dir", uploadDir)
	}

	app := &Application{
		db:          dbService,
		rateLimiter: models.NewRateLimiter(rateLimitEvery, rateLimitBurst, rateLimitPrune, rateLimitExpire),
		sessions:    models.NewSessionStore(sessionTTL),
		logger:      logger,
		storage:     storageService,
	}

	mux := handlers.SetupRouter(app)

	// --- Graceful Shutdown ---
	server := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("microboard server started successfully",
		"version", config.AppVersion,
		"address", "http://localhost:"+port,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exiting")
}
