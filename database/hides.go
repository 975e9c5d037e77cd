// microboard/database/hides.go
package database

import (
	"database/sql"
	"fmt"

	"microboard/models"
)

// IsHidden reports whether the given session has hidden a post.
func (ds *DatabaseService) IsHidden(sessionID, boardID string, postID int64) (bool, error) {
	var one int
	err := ds.DB.QueryRow("SELECT 1 FROM hides WHERE session_id = ? AND board_id = ? AND post_id = ?",
		sessionID, boardID, postID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("db error checking hide: %w", err)
	}
	return true, nil
}

// ToggleHide flips the session's hide overlay for a post: inserted if absent,
// removed if present, atomically in one transaction. The table's composite
// primary key guarantees a duplicate network retry can never leave two rows,
// and INSERT OR IGNORE makes the racing-toggle case last-writer-wins instead
// of a constraint failure.
func (ds *DatabaseService) ToggleHide(sessionID, boardID string, postID int64) (models.HideState, error) {
	tx, err := ds.DB.Begin()
	if err != nil {
		return models.HideState{}, err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in ToggleHide", "error", rerr)
		}
	}()

	res, err := tx.Exec("DELETE FROM hides WHERE session_id = ? AND board_id = ? AND post_id = ?",
		sessionID, boardID, postID)
	if err != nil {
		return models.HideState{}, fmt.Errorf("db error removing hide: %w", err)
	}

	state := models.HideState{}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.Exec("INSERT OR IGNORE INTO hides (session_id, board_id, post_id) VALUES (?, ?, ?)",
			sessionID, boardID, postID); err != nil {
			return models.HideState{}, fmt.Errorf("db error inserting hide: %w", err)
		}
		state.NowHidden = true
	}

	if err := tx.Commit(); err != nil {
		return models.HideState{}, err
	}
	return state, nil
}
