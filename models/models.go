// microboard/models/models.go
package models

import (
	"net"
	"time"
)

// Role values carried on posts and accounts. Anonymous posts use RoleNone;
// staff posts record the role the poster was logged in with so the nameblock
// can display a capcode.
const (
	RoleNone       = 0
	RoleModerator  = 1
	RoleAdmin      = 2
	RoleSuperAdmin = 3
)

// Board types. A "main" board aggregates threads across every underlying
// board and does not accept posts directly.
const (
	BoardTypeNormal = "board"
	BoardTypeMain   = "main"
)

// --- Core Data Models ---

// BoardConfig holds the per-board settings consumed by the query layer.
type BoardConfig struct {
	ID                    string
	Name                  string
	Description           string
	Type                  string
	ThreadsPerPage        int
	PostsPerPreview       int
	ThreadsPerCatalogPage int
	Anonymous             string
	NoFileOK              bool
	MaxKB                 int
	TruncateLen           int
	Created               time.Time
}

// Post is the central entity. A thread is a post with ParentID 0; a reply
// references its thread's PostID via ParentID on the same board.
type Post struct {
	BoardID          string    `json:"board_id"`
	PostID           int64     `json:"post_id"`
	ParentID         int64     `json:"parent_id"`
	IP               net.IP    `json:"-"`
	Timestamp        time.Time `json:"timestamp"`
	Bumped           time.Time `json:"bumped"`
	Role             int       `json:"role"`
	Name             string    `json:"name"`
	Tripcode         string    `json:"tripcode"`
	Email            string    `json:"email"`
	Nameblock        string    `json:"nameblock"`
	Subject          string    `json:"subject"`
	Message          string    `json:"message"`
	MessageRendered  string    `json:"message_rendered"`
	MessageTruncated bool      `json:"message_truncated"`
	Password         string    `json:"-"`
	File             string    `json:"file,omitempty"`
	FileHex          string    `json:"file_hex,omitempty"`
	FileOriginal     string    `json:"file_original,omitempty"`
	FileSize         int64     `json:"file_size,omitempty"`
	FileSizeFmt      string    `json:"file_size_formatted,omitempty"`
	ImageWidth       int       `json:"image_width,omitempty"`
	ImageHeight      int       `json:"image_height,omitempty"`
	Thumb            string    `json:"thumb,omitempty"`
	ThumbWidth       int       `json:"thumb_width,omitempty"`
	ThumbHeight      int       `json:"thumb_height,omitempty"`
	Country          string    `json:"country,omitempty"`
	Spoiler          bool      `json:"spoiler"`
	Stickied         bool      `json:"stickied"`
	Moderated        bool      `json:"moderated"`
	Locked           bool      `json:"locked"`
	Deleted          bool      `json:"deleted"`
	Imported         bool      `json:"imported"`
}

// IsThread reports whether the post is a thread root.
func (p *Post) IsThread() bool {
	return p.ParentID == 0
}

// FileRef is the dedup-index view of a post's file metadata, returned when a
// new upload collides with an existing content hash. The upload layer reuses
// the stored derivatives instead of recomputing them.
type FileRef struct {
	PostID       int64
	File         string
	FileHex      string
	FileOriginal string
	FileSize     int64
	FileSizeFmt  string
	ImageWidth   int
	ImageHeight  int
	Thumb        string
	ThumbWidth   int
	ThumbHeight  int
	Spoiler      bool
}

// Hide is a per-session visibility overlay on a thread. It owns nothing about
// the post itself.
type Hide struct {
	SessionID string
	BoardID   string
	PostID    int64
}

// HideState is the result of toggling a hide.
type HideState struct {
	NowHidden bool
}

// --- Moderation & Manage Models ---

// Report is an append-only moderation signal.
type Report struct {
	ID        int64     `json:"id"`
	IP        net.IP    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	BoardID   string    `json:"board_id"`
	PostID    int64     `json:"post_id"`
	Type      string    `json:"type"`
}

// Account is a staff login. Password holds a bcrypt hash.
type Account struct {
	ID         int64     `json:"-"`
	Username   string    `json:"username"`
	Password   string    `json:"-"`
	Role       int       `json:"role"`
	LastActive time.Time `json:"lastactive"`
	Imported   bool      `json:"imported,omitempty"`
}

// RebuildPost carries the fields needed to re-render a post's display
// strings during a board rebuild.
type RebuildPost struct {
	BoardID   string
	PostID    int64
	Timestamp time.Time
	Role      int
	Name      string
	Tripcode  string
	Email     string
	Message   string
	Imported  bool
}
