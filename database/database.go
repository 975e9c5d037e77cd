// microboard/database/database.go
package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"microboard/models"
	"microboard/utils"

	_ "github.com/mattn/go-sqlite3"
)

// DatabaseService is the central struct for all database operations. It owns
// the connection pool; nothing in the store reaches for global state.
type DatabaseService struct {
	DB         *sql.DB
	logger     *slog.Logger
	boardCache map[string]*models.BoardConfig
	cacheMu    sync.RWMutex
}

// InitDB connects to the database, runs migrations, and seeds default data.
func InitDB(dataSourceName string, logger *slog.Logger) (*DatabaseService, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Run the base schema to ensure all tables exist.
	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to execute base schema: %w", err)
	}

	// Run versioned migrations
	if err := runMigrations(db, logger); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	// Seed database if empty
	var boardCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM boards").Scan(&boardCount); err == nil && boardCount == 0 {
		now := time.Now().UTC()
		seeds := []struct {
			id, name, desc, typ string
		}{
			{"b", "Random", "The anything-goes board.", models.BoardTypeNormal},
			{"all", "Overboard", "Every thread from every board.", models.BoardTypeMain},
		}
		for _, s := range seeds {
			_, err := db.Exec(`INSERT INTO boards (id, name, description, type, created) VALUES (?, ?, ?, ?, ?)`,
				s.id, s.name, s.desc, s.typ, now)
			if err != nil {
				return nil, fmt.Errorf("failed to seed board '%s': %w", s.id, err)
			}
		}
	}

	logger.Info("Database initialized and cache ready.")

	return &DatabaseService{
		DB:         db,
		logger:     logger,
		boardCache: make(map[string]*models.BoardConfig),
	}, nil
}

// BackupDatabase performs an online backup of the live SQLite database using
// VACUUM INTO and returns the path of the backup file.
func (ds *DatabaseService) BackupDatabase(backupDir string) (string, error) {
	if backupDir == "" {
		return "", fmt.Errorf("backup directory is not configured")
	}
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("could not create backup directory %s: %w", backupDir, err)
	}

	timestamp := time.Now().UTC().Format("2006-01-02_15-04-05")
	backupPath := filepath.Join(backupDir, fmt.Sprintf("microboard_backup_%s.db", timestamp))

	ds.logger.Info("Starting database backup", "destination", backupPath)

	if _, err := ds.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
		// Remove the potentially incomplete file.
		if removeErr := os.Remove(backupPath); removeErr != nil && !os.IsNotExist(removeErr) {
			ds.logger.Error("Failed to remove incomplete backup file", "path", backupPath, "error", removeErr)
		}
		return "", fmt.Errorf("VACUUM INTO command failed: %w", err)
	}

	return backupPath, nil
}

// runMigrations applies all un-applied migrations.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	var latestVersion uint
	err := db.QueryRow("SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&latestVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("could not get db version: %w", err)
	}

	logger.Info("Current database schema version", "version", latestVersion)

	for _, m := range allMigrations {
		if m.Version > latestVersion {
			logger.Info("Applying migration", "version", m.Version)
			tx, err := db.Begin()
			if err != nil {
				return err
			}

			if _, err := tx.Exec(m.Query); err != nil {
				if rerr := tx.Rollback(); rerr != nil {
					logger.Error("Failed to rollback migration", "version", m.Version, "error", rerr)
				}
				return fmt.Errorf("failed to apply migration v%d: %w", m.Version, err)
			}
			if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", m.Version, utils.GetSQLTime()); err != nil {
				if rerr := tx.Rollback(); rerr != nil {
					logger.Error("Failed to rollback migration record", "version", m.Version, "error", rerr)
				}
				return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
			}

			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
			}
			logger.Info("Successfully applied migration", "version", m.Version)
		}
	}
	return nil
}

// GetBoard fetches board configuration, using the instance's cache.
func (ds *DatabaseService) GetBoard(boardID string) (*models.BoardConfig, error) {
	ds.cacheMu.RLock()
	config, ok := ds.boardCache[boardID]
	ds.cacheMu.RUnlock()
	if ok {
		return config, nil
	}

	var board models.BoardConfig
	err := ds.DB.QueryRow(`SELECT id, name, description, type, threads_per_page, posts_per_preview,
		threads_per_catalog_page, anonymous, nofile_ok, max_kb, truncate_len, created
		FROM boards WHERE id = ?`, boardID).Scan(
		&board.ID, &board.Name, &board.Description, &board.Type, &board.ThreadsPerPage,
		&board.PostsPerPreview, &board.ThreadsPerCatalogPage, &board.Anonymous,
		&board.NoFileOK, &board.MaxKB, &board.TruncateLen, &board.Created,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("board '%s': %w", boardID, ErrNotFound)
		}
		return nil, fmt.Errorf("db error getting board '%s': %w", boardID, err)
	}

	ds.cacheMu.Lock()
	ds.boardCache[boardID] = &board
	ds.cacheMu.Unlock()
	return &board, nil
}

// ListBoards returns all boards in id order.
func (ds *DatabaseService) ListBoards() ([]models.BoardConfig, error) {
	rows, err := ds.DB.Query(`SELECT id, name, description, type, threads_per_page, posts_per_preview,
		threads_per_catalog_page, anonymous, nofile_ok, max_kb, truncate_len, created
		FROM boards ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListBoards", "error", err)
		}
	}()

	var boards []models.BoardConfig
	for rows.Next() {
		var b models.BoardConfig
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Type, &b.ThreadsPerPage,
			&b.PostsPerPreview, &b.ThreadsPerCatalogPage, &b.Anonymous,
			&b.NoFileOK, &b.MaxKB, &b.TruncateLen, &b.Created); err != nil {
			ds.logger.Error("Failed to scan board row", "error", err)
			continue
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return boards, nil
}

// --- Cache Management ---

func (ds *DatabaseService) ClearBoardCache(boardID string) {
	ds.cacheMu.Lock()
	delete(ds.boardCache, boardID)
	ds.cacheMu.Unlock()
}

func (ds *DatabaseService) ClearAllBoardCaches() {
	ds.cacheMu.Lock()
	ds.boardCache = make(map[string]*models.BoardConfig)
	ds.cacheMu.Unlock()
}
