// microboard/database/rebuild.go
package database

import (
	"database/sql"
	"errors"
	"fmt"

	"microboard/models"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// ListRebuildPosts returns every post on a board with just the fields the
// rendering layer needs to regenerate display strings.
func (ds *DatabaseService) ListRebuildPosts(boardID string) ([]models.RebuildPost, error) {
	rows, err := ds.DB.Query(`SELECT post_id, board_id, timestamp, role, name, email, tripcode, message, imported
		FROM posts WHERE board_id = ?`, boardID)
	if err != nil {
		return nil, fmt.Errorf("db error listing rebuild posts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListRebuildPosts", "error", err)
		}
	}()

	var posts []models.RebuildPost
	for rows.Next() {
		var p models.RebuildPost
		if err := rows.Scan(&p.PostID, &p.BoardID, &p.Timestamp, &p.Role, &p.Name, &p.Email,
			&p.Tripcode, &p.Message, &p.Imported); err != nil {
			ds.logger.Error("Failed to scan rebuild row", "error", err)
			continue
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdateRenderedPost overwrites the pre-rendered display fields of a post.
// Only message_rendered, message_truncated and nameblock change; everything
// else is immutable to the rebuild pass.
func (ds *DatabaseService) UpdateRenderedPost(boardID string, postID int64, rendered string, truncated bool, nameblock string) error {
	res, err := ds.DB.Exec(`UPDATE posts SET message_rendered = ?, message_truncated = ?, nameblock = ?
		WHERE board_id = ? AND post_id = ?`, rendered, truncated, nameblock, boardID, postID)
	if err != nil {
		return fmt.Errorf("db error updating rendered post /%s/%d: %w", boardID, postID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("post /%s/%d: %w", boardID, postID, ErrNotFound)
	}
	return nil
}

// ImportPosts bulk-copies rows migrated from a foreign schema, preserving the
// pre-existing post numbers and tagging every row imported. The transactional
// numbering discipline applies only to organic inserts; import rows bring
// their own, and a collision with existing numbers aborts the whole batch.
func (ds *DatabaseService) ImportPosts(boardID string, posts []models.Post) (int64, error) {
	tx, err := ds.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in ImportPosts", "error", rerr)
		}
	}()

	stmt, err := tx.Prepare(`INSERT INTO posts (
		board_id, post_id, parent_id, ip, timestamp, bumped, role,
		name, tripcode, email, nameblock, subject, message, message_rendered, message_truncated,
		password, file, file_hex, file_original, file_size, file_size_formatted,
		image_width, image_height, thumb, thumb_width, thumb_height,
		country, spoiler, stickied, moderated, locked, deleted, imported
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			ds.logger.Error("Failed to close statement in ImportPosts", "error", err)
		}
	}()

	var inserted int64
	for i := range posts {
		p := &posts[i]
		_, err := stmt.Exec(
			boardID, p.PostID, p.ParentID, []byte(p.IP), p.Timestamp, p.Bumped, p.Role,
			p.Name, p.Tripcode, p.Email, p.Nameblock, p.Subject, p.Message, p.MessageRendered,
			p.MessageTruncated, p.Password, p.File, p.FileHex, p.FileOriginal, p.FileSize,
			p.FileSizeFmt, p.ImageWidth, p.ImageHeight, p.Thumb, p.ThumbWidth, p.ThumbHeight,
			p.Country, p.Spoiler, p.Stickied, p.Moderated, p.Locked, p.Deleted,
		)
		if err != nil {
			var sqliteErr sqlite3.Error
			if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
				return 0, fmt.Errorf("import collides with post /%s/%d: %w", boardID, p.PostID, ErrConflict)
			}
			return 0, fmt.Errorf("db error importing post /%s/%d: %w", boardID, p.PostID, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ImportAccounts bulk-copies staff accounts from a foreign schema, tagging
// them imported. Password hashes are carried as-is.
func (ds *DatabaseService) ImportAccounts(accounts []models.Account) (int64, error) {
	tx, err := ds.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in ImportAccounts", "error", rerr)
		}
	}()

	var inserted int64
	for i := range accounts {
		a := &accounts[i]
		_, err := tx.Exec("INSERT INTO accounts (username, password, role, lastactive, imported) VALUES (?, ?, ?, ?, 1)",
			a.Username, a.Password, a.Role, a.LastActive)
		if err != nil {
			var sqliteErr sqlite3.Error
			if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
				return 0, fmt.Errorf("import collides with account '%s': %w", a.Username, ErrConflict)
			}
			return 0, fmt.Errorf("db error importing account '%s': %w", a.Username, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}
