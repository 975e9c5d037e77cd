// microboard/database/posts.go
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"microboard/models"
	"microboard/utils"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Order selects the sort direction over the bumped timestamp. Thread lists
// use BumpedDesc; chronological reply display uses BumpedAsc.
type Order int

const (
	BumpedDesc Order = iota
	BumpedAsc
)

// orderClauses is the fixed set of ORDER BY shapes. Sort direction is never
// interpolated from caller strings.
var orderClauses = map[Order]string{
	BumpedDesc: " ORDER BY bumped DESC, post_id DESC",
	BumpedAsc:  " ORDER BY bumped ASC, post_id ASC",
}

// PostFilter is the shared predicate for ListPosts and CountPosts. Both must
// use the identical filter so pagination totals stay exact.
//
// BoardID selects a single board; an empty BoardID queries across all boards,
// which is how "main" (overview) board types aggregate. The caller decides
// explicitly; the store never inspects board configuration.
type PostFilter struct {
	SessionID  string
	BoardID    string
	ParentID   int64
	HiddenOnly bool // list only threads this session has hidden
	Deleted    bool // list soft-deleted rows instead of live ones
}

const postColumns = `board_id, post_id, parent_id, ip, timestamp, bumped, role,
	name, tripcode, email, nameblock, subject, message, message_rendered, message_truncated,
	password, file, file_hex, file_original, file_size, file_size_formatted,
	image_width, image_height, thumb, thumb_width, thumb_height,
	country, spoiler, stickied, moderated, locked, deleted, imported`

// hide overlay predicates. The hide set is filtered inside the query; it is
// never pulled into application memory.
const (
	notHiddenClause = ` AND post_id NOT IN (SELECT post_id FROM hides WHERE session_id = ? AND board_id = posts.board_id)`
	hiddenClause    = ` AND post_id IN (SELECT post_id FROM hides WHERE session_id = ? AND board_id = posts.board_id)`
)

// whereClause assembles the filter predicate from fixed fragments.
func (f PostFilter) whereClause() (string, []interface{}) {
	var b strings.Builder
	args := make([]interface{}, 0, 5)

	b.WriteString(" WHERE parent_id = ?")
	args = append(args, f.ParentID)
	if f.BoardID != "" {
		b.WriteString(" AND board_id = ?")
		args = append(args, f.BoardID)
	}
	if f.HiddenOnly {
		b.WriteString(hiddenClause)
	} else {
		b.WriteString(notHiddenClause)
	}
	args = append(args, f.SessionID)
	b.WriteString(" AND deleted = ?")
	args = append(args, f.Deleted)

	return b.String(), args
}

func scanPost(row interface{ Scan(...interface{}) error }) (*models.Post, error) {
	var p models.Post
	var ip []byte
	err := row.Scan(
		&p.BoardID, &p.PostID, &p.ParentID, &ip, &p.Timestamp, &p.Bumped, &p.Role,
		&p.Name, &p.Tripcode, &p.Email, &p.Nameblock, &p.Subject, &p.Message,
		&p.MessageRendered, &p.MessageTruncated, &p.Password, &p.File, &p.FileHex,
		&p.FileOriginal, &p.FileSize, &p.FileSizeFmt, &p.ImageWidth, &p.ImageHeight,
		&p.Thumb, &p.ThumbWidth, &p.ThumbHeight, &p.Country, &p.Spoiler,
		&p.Stickied, &p.Moderated, &p.Locked, &p.Deleted, &p.Imported,
	)
	if err != nil {
		return nil, err
	}
	p.IP = ip
	return &p, nil
}

// GetPost fetches a single post by its board-scoped number. Soft-deleted
// posts are invisible unless includeDeleted is set.
func (ds *DatabaseService) GetPost(boardID string, postID int64, includeDeleted bool) (*models.Post, error) {
	query := "SELECT " + postColumns + " FROM posts WHERE board_id = ? AND post_id = ?"
	if !includeDeleted {
		query += " AND deleted = 0"
	}
	p, err := scanPost(ds.DB.QueryRow(query, boardID, postID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("post /%s/%d: %w", boardID, postID, ErrNotFound)
		}
		return nil, fmt.Errorf("db error getting post /%s/%d: %w", boardID, postID, err)
	}
	return p, nil
}

// ListPosts returns an ordered window of posts matching the filter. Threads
// are ParentID 0; replies pass the thread's post number as ParentID.
func (ds *DatabaseService) ListPosts(f PostFilter, order Order, offset, limit int) ([]models.Post, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit %d: %w", limit, ErrValidation)
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset %d: %w", offset, ErrValidation)
	}

	where, args := f.whereClause()
	query := "SELECT " + postColumns + " FROM posts" + where + orderClauses[order] + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := ds.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error listing posts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListPosts", "error", err)
		}
	}()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			ds.logger.Error("Failed to scan post row", "error", err)
			continue
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// CountPosts returns the number of posts matching the filter, using the same
// predicate as ListPosts.
func (ds *DatabaseService) CountPosts(f PostFilter) (int, error) {
	where, args := f.whereClause()
	var count int
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM posts"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error counting posts: %w", err)
	}
	return count, nil
}

// ListPreviewPosts returns the last N live replies of a thread in
// chronological order. The inner query selects the most recent N by bumped
// descending; the outer re-sorts that bounded window ascending. Keeping the
// window bounded this way avoids scanning the full reply set, and stays
// correct under concurrent inserts where an ascending query with a computed
// OFFSET would not.
func (ds *DatabaseService) ListPreviewPosts(sessionID, boardID string, parentID int64, limit int) ([]models.Post, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit %d: %w", limit, ErrValidation)
	}

	query := `SELECT ` + postColumns + ` FROM (
		SELECT ` + postColumns + ` FROM posts
		WHERE board_id = ? AND parent_id = ?` + notHiddenClause + ` AND deleted = 0
		ORDER BY bumped DESC, post_id DESC
		LIMIT ?
	) AS t ORDER BY bumped ASC, post_id ASC`

	rows, err := ds.DB.Query(query, boardID, parentID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error listing preview posts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListPreviewPosts", "error", err)
		}
	}()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			ds.logger.Error("Failed to scan preview row", "error", err)
			continue
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// InsertPost assigns the next board-scoped post number and inserts the post,
// both inside one transaction so concurrent inserts on the same board can
// never collide. The assigned number is returned.
//
// The store is the source of creation time: if the post carries no timestamp
// one is assigned, and bumped always starts equal to timestamp.
func (ds *DatabaseService) InsertPost(p *models.Post) (int64, error) {
	if p.BoardID == "" {
		return 0, fmt.Errorf("post without board: %w", ErrValidation)
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = utils.GetSQLTime()
	}
	p.Bumped = p.Timestamp

	tx, err := ds.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in InsertPost", "error", rerr)
		}
	}()

	// A reply must reference a live thread root on the same board.
	if p.ParentID != 0 {
		var parentOfParent int64
		err := tx.QueryRow("SELECT parent_id FROM posts WHERE board_id = ? AND post_id = ? AND deleted = 0",
			p.BoardID, p.ParentID).Scan(&parentOfParent)
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("thread /%s/%d: %w", p.BoardID, p.ParentID, ErrNotFound)
		}
		if err != nil {
			return 0, fmt.Errorf("db error checking parent thread: %w", err)
		}
		if parentOfParent != 0 {
			return 0, fmt.Errorf("post /%s/%d is not a thread: %w", p.BoardID, p.ParentID, ErrValidation)
		}
	}

	res, err := tx.Exec(`INSERT INTO posts (
		board_id, post_id, parent_id, ip, timestamp, bumped, role,
		name, tripcode, email, nameblock, subject, message, message_rendered, message_truncated,
		password, file, file_hex, file_original, file_size, file_size_formatted,
		image_width, image_height, thumb, thumb_width, thumb_height,
		country, spoiler, stickied, moderated, locked, deleted, imported
	) VALUES (
		?, (SELECT COALESCE(MAX(post_id), 0) + 1 FROM posts WHERE board_id = ?),
		?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0
	)`,
		p.BoardID, p.BoardID, p.ParentID, []byte(p.IP), p.Timestamp, p.Bumped, p.Role,
		p.Name, p.Tripcode, p.Email, p.Nameblock, p.Subject, p.Message, p.MessageRendered,
		p.MessageTruncated, p.Password, p.File, p.FileHex, p.FileOriginal, p.FileSize,
		p.FileSizeFmt, p.ImageWidth, p.ImageHeight, p.Thumb, p.ThumbWidth, p.ThumbHeight,
		p.Country, p.Spoiler, p.Stickied, p.Moderated, p.Locked,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			// Numbering is transactional, so a duplicate here is a bug.
			return 0, fmt.Errorf("post number collision on /%s/: %w", p.BoardID, ErrConflict)
		}
		return 0, fmt.Errorf("db error inserting post: %w", err)
	}

	// Read the assigned board-scoped number back via the internal row id.
	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	var postID int64
	if err := tx.QueryRow("SELECT post_id FROM posts WHERE id = ?", rowID).Scan(&postID); err != nil {
		return 0, fmt.Errorf("db error reading assigned post number: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	p.PostID = postID
	return postID, nil
}

// SoftDeletePost flips the deleted flag, removing the post from all default
// queries while retaining the row.
func (ds *DatabaseService) SoftDeletePost(boardID string, postID int64) error {
	res, err := ds.DB.Exec("UPDATE posts SET deleted = 1 WHERE board_id = ? AND post_id = ? AND deleted = 0",
		boardID, postID)
	if err != nil {
		return fmt.Errorf("db error soft-deleting post /%s/%d: %w", boardID, postID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("post /%s/%d: %w", boardID, postID, ErrNotFound)
	}
	return nil
}

// HardDeletePost physically removes the row. Irreversible.
func (ds *DatabaseService) HardDeletePost(boardID string, postID int64) error {
	res, err := ds.DB.Exec("DELETE FROM posts WHERE board_id = ? AND post_id = ?", boardID, postID)
	if err != nil {
		return fmt.Errorf("db error hard-deleting post /%s/%d: %w", boardID, postID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("post /%s/%d: %w", boardID, postID, ErrNotFound)
	}
	return nil
}

// BumpThread advances a thread's bumped time to now. The store supplies the
// clock, and a bump can never move the timestamp backwards even under racing
// replies; last writer wins on the monotonically increasing value.
func (ds *DatabaseService) BumpThread(boardID string, postID int64) error {
	now := utils.GetSQLTime()
	res, err := ds.DB.Exec(
		"UPDATE posts SET bumped = ? WHERE board_id = ? AND post_id = ? AND parent_id = 0 AND deleted = 0 AND bumped <= ?",
		now, boardID, postID, now)
	if err != nil {
		return fmt.Errorf("db error bumping thread /%s/%d: %w", boardID, postID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// No row moved: either the thread does not exist, or its bump time is
	// already ahead of our clock and the stale write was skipped.
	var exists int
	err = ds.DB.QueryRow("SELECT 1 FROM posts WHERE board_id = ? AND post_id = ? AND parent_id = 0 AND deleted = 0",
		boardID, postID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("thread /%s/%d: %w", boardID, postID, ErrNotFound)
	}
	return err
}

// FindFilesByHex returns the file metadata of every post sharing the given
// content hash. An empty result means the upload is new and must be processed
// from scratch; otherwise the caller may reuse the stored derivatives.
func (ds *DatabaseService) FindFilesByHex(fileHex string) ([]models.FileRef, error) {
	rows, err := ds.DB.Query(`SELECT post_id, file, file_hex, file_original, file_size,
		file_size_formatted, image_width, image_height, thumb, thumb_width, thumb_height, spoiler
		FROM posts WHERE file_hex = ? AND file_hex != ''`, fileHex)
	if err != nil {
		return nil, fmt.Errorf("db error looking up file hash: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in FindFilesByHex", "error", err)
		}
	}()

	var refs []models.FileRef
	for rows.Next() {
		var f models.FileRef
		if err := rows.Scan(&f.PostID, &f.File, &f.FileHex, &f.FileOriginal, &f.FileSize,
			&f.FileSizeFmt, &f.ImageWidth, &f.ImageHeight, &f.Thumb, &f.ThumbWidth,
			&f.ThumbHeight, &f.Spoiler); err != nil {
			ds.logger.Error("Failed to scan file ref row", "error", err)
			continue
		}
		refs = append(refs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return refs, nil
}
