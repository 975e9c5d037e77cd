// microboard/database/database_test.go
package database

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"microboard/models"
)

// setupTestDB creates a fresh on-disk SQLite database for testing.
func setupTestDB(t *testing.T) *DatabaseService {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	dir, err := os.MkdirTemp("", "mb_test_db")
	if err != nil {
		t.Fatalf("Failed to create temp dir for test DB: %v", err)
	}
	dbPath := filepath.Join(dir, "test.db?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")

	ds, err := InitDB(dbPath, logger)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	t.Cleanup(func() {
		ds.DB.Close()
		os.RemoveAll(dir)
	})

	return ds
}

// insertTestPost inserts a minimal post and fails the test on error.
func insertTestPost(t *testing.T, ds *DatabaseService, boardID string, parentID int64, message string) *models.Post {
	t.Helper()
	p := &models.Post{
		BoardID:  boardID,
		ParentID: parentID,
		Name:     "Anonymous",
		Message:  message,
	}
	if _, err := ds.InsertPost(p); err != nil {
		t.Fatalf("InsertPost failed: %v", err)
	}
	return p
}

// TestInitDB checks that the database is seeded with the default boards.
func TestInitDB(t *testing.T) {
	ds := setupTestDB(t)

	var boardCount int
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM boards").Scan(&boardCount); err != nil {
		t.Fatalf("Failed to query boards: %v", err)
	}
	if boardCount == 0 {
		t.Error("Expected boards to be seeded, but count is 0")
	}

	board, err := ds.GetBoard("b")
	if err != nil {
		t.Fatalf("Expected seeded board 'b', got error: %v", err)
	}
	if board.Type != models.BoardTypeNormal {
		t.Errorf("Expected board 'b' to be a normal board, got type %q", board.Type)
	}

	overboard, err := ds.GetBoard("all")
	if err != nil {
		t.Fatalf("Expected seeded board 'all', got error: %v", err)
	}
	if overboard.Type != models.BoardTypeMain {
		t.Errorf("Expected board 'all' to be a main board, got type %q", overboard.Type)
	}
}

// TestMigrations verifies that our schema migrations run successfully.
func TestMigrations(t *testing.T) {
	ds := setupTestDB(t)

	// The columns added in migration version 1 must exist.
	rows, err := ds.DB.Query("SELECT imported FROM posts LIMIT 1")
	if err != nil {
		t.Fatalf("Migration test failed. Could not query for new column in 'posts' table: %v", err)
	}
	rows.Close()

	var version int
	err = ds.DB.QueryRow("SELECT version FROM schema_migrations WHERE version = 1").Scan(&version)
	if err != nil {
		t.Fatalf("Migration version 1 was not recorded in schema_migrations: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected migration version to be 1, but got %d", version)
	}
}

// TestGetBoardCache verifies the board cache serves and invalidates correctly.
func TestGetBoardCache(t *testing.T) {
	ds := setupTestDB(t)

	first, err := ds.GetBoard("b")
	if err != nil {
		t.Fatalf("GetBoard failed: %v", err)
	}

	// Change the row under the cache. The cached copy must win until cleared.
	if _, err := ds.DB.Exec("UPDATE boards SET name = 'Changed' WHERE id = 'b'"); err != nil {
		t.Fatalf("Failed to update board row: %v", err)
	}

	cached, err := ds.GetBoard("b")
	if err != nil {
		t.Fatalf("GetBoard failed: %v", err)
	}
	if cached.Name != first.Name {
		t.Errorf("Expected cached board name %q, got %q", first.Name, cached.Name)
	}

	ds.ClearBoardCache("b")

	fresh, err := ds.GetBoard("b")
	if err != nil {
		t.Fatalf("GetBoard failed: %v", err)
	}
	if fresh.Name != "Changed" {
		t.Errorf("Expected fresh board name 'Changed', got %q", fresh.Name)
	}
}

// TestBackupDatabase verifies the VACUUM INTO backup produces a usable copy.
func TestBackupDatabase(t *testing.T) {
	ds := setupTestDB(t)
	insertTestPost(t, ds, "b", 0, "survives the backup")

	backupDir, err := os.MkdirTemp("", "mb_test_backup")
	if err != nil {
		t.Fatalf("Failed to create temp backup dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(backupDir) })

	path, err := ds.BackupDatabase(backupDir)
	if err != nil {
		t.Fatalf("BackupDatabase failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Backup file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Expected non-empty backup file")
	}

	// The backup opens as a regular database with the data in place.
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	restored, err := InitDB(path, logger)
	if err != nil {
		t.Fatalf("Failed to open backup: %v", err)
	}
	defer restored.DB.Close()
	if _, err := restored.GetPost("b", 1, false); err != nil {
		t.Errorf("Expected post in restored backup, got %v", err)
	}

	if _, err := ds.BackupDatabase(""); err == nil {
		t.Error("Expected error for unset backup directory")
	}
}

// TestInsertPostStampsTime sanity-checks that inserts stamp the store clock.
func TestInsertPostStampsTime(t *testing.T) {
	ds := setupTestDB(t)

	before := time.Now().UTC().Add(-time.Second)
	p := insertTestPost(t, ds, "b", 0, "first")
	after := time.Now().UTC().Add(time.Second)

	if p.Timestamp.Before(before) || p.Timestamp.After(after) {
		t.Errorf("Expected store-assigned timestamp near now, got %v", p.Timestamp)
	}
	if !p.Bumped.Equal(p.Timestamp) {
		t.Errorf("Expected bumped to start equal to timestamp, got %v vs %v", p.Bumped, p.Timestamp)
	}
}
