// microboard/handlers/main_test.go
package handlers

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"microboard/database"
	"microboard/models"
	"microboard/utils"
)

// MockApplication holds dependencies for handler tests.
type MockApplication struct {
	db          *database.DatabaseService
	rateLimiter *models.RateLimiter
	sessions    *models.SessionStore
	logger      *slog.Logger
	storage     utils.Storage
}

func (a *MockApplication) DB() *database.DatabaseService    { return a.db }
func (a *MockApplication) RateLimiter() *models.RateLimiter { return a.rateLimiter }
func (a *MockApplication) Sessions() *models.SessionStore   { return a.sessions }
func (a *MockApplication) Logger() *slog.Logger             { return a.logger }
func (a *MockApplication) Storage() utils.Storage           { return a.storage }

// setupTestApp creates a full application stack with a test database for
// integration testing.
func setupTestApp(t *testing.T) *MockApplication {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	dbDir, err := os.MkdirTemp("", "mb_test_db_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir for test DB: %v", err)
	}
	dbPath := filepath.Join(dbDir, "test.db?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	dbService, err := database.InitDB(dbPath, logger)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	uploadDir, err := os.MkdirTemp("", "mb_test_uploads_*")
	if err != nil {
		t.Fatalf("Failed to create temp upload dir: %v", err)
	}

	app := &MockApplication{
		db:          dbService,
		rateLimiter: models.NewRateLimiter(time.Millisecond, 1000, time.Hour, 24*time.Hour),
		sessions:    models.NewSessionStore(time.Hour),
		logger:      logger,
		storage:     &utils.LocalStorage{UploadDir: uploadDir},
	}

	utils.TripSalt = "test-salt"

	t.Cleanup(func() {
		app.db.DB.Close()
		os.RemoveAll(dbDir)
		os.RemoveAll(uploadDir)
		utils.TripSalt = ""
	})

	return app
}

// insertThread writes a thread directly through the store for fixtures.
func insertThread(t *testing.T, app *MockApplication, boardID, message string) *models.Post {
	t.Helper()
	p := &models.Post{BoardID: boardID, Name: "Anonymous", Message: message, MessageRendered: message}
	if _, err := app.db.InsertPost(p); err != nil {
		t.Fatalf("Failed to insert fixture thread: %v", err)
	}
	return p
}
