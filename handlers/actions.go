// microboard/handlers/actions.go
package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"path/filepath"
	"strings"

	"microboard/config"
	"microboard/database"
	"microboard/models"
	"microboard/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// HandleNewThread creates a thread on a board.
func HandleNewThread(w http.ResponseWriter, r *http.Request, app App) {
	handlePostForm(w, r, app, 0)
}

// HandleNewReply creates a reply in an existing thread and bumps it.
func HandleNewReply(w http.ResponseWriter, r *http.Request, app App) {
	threadID, err := parsePostID(chi.URLParam(r, "threadID"))
	if err != nil {
		respondError(w, app, err)
		return
	}
	handlePostForm(w, r, app, threadID)
}

// handlePostForm is the shared submission path for threads and replies: it
// validates the form, runs the upload through the dedup index, writes the
// post and advances the parent's bump time.
func handlePostForm(w http.ResponseWriter, r *http.Request, app App, threadID int64) {
	if err := r.ParseMultipartForm(int64(config.MaxFileSizeKB) * 1024 * 2); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed form"}, app)
		return
	}

	board, err := app.DB().GetBoard(chi.URLParam(r, "boardID"))
	if err != nil {
		respondError(w, app, err)
		return
	}

	// Main boards aggregate; the actual post lands on the board named in the
	// form, and never on another main board.
	if board.Type == models.BoardTypeMain {
		if threadID != 0 {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("posting on /%s/ is disabled", board.ID)}, app)
			return
		}
		board, err = app.DB().GetBoard(r.FormValue("board"))
		if err != nil {
			respondError(w, app, err)
			return
		}
		if board.Type == models.BoardTypeMain {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("posting on /%s/ is disabled", board.ID)}, app)
			return
		}
	}

	name := truncateField(r.FormValue("name"), config.MaxNameLen)
	email := truncateField(r.FormValue("email"), config.MaxEmailLen)
	subject := truncateField(r.FormValue("subject"), config.MaxSubjectLen)
	message := truncateField(r.FormValue("message"), config.MaxMessageLen)
	password := truncateField(r.FormValue("password"), config.MaxPasswordLen)

	// Replies must reference a live thread root on the same board; the store
	// re-checks this inside the insert transaction, but failing early gives
	// the poster a proper 404 before any file work.
	if threadID != 0 {
		parent, err := app.DB().GetPost(board.ID, threadID, false)
		if err != nil {
			respondError(w, app, err)
			return
		}
		if !parent.IsThread() {
			respondError(w, app, fmt.Errorf("post /%s/%d is not a thread: %w", board.ID, threadID, database.ErrValidation))
			return
		}
		if parent.Locked {
			respondJSON(w, http.StatusForbidden, map[string]string{"error": "thread is locked"}, app)
			return
		}
	}

	fileInfo, err := processUpload(r, app, board)
	if err != nil {
		respondError(w, app, err)
		return
	}
	if strings.TrimSpace(message) == "" && fileInfo == nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "message and file cannot both be empty"}, app)
		return
	}
	if fileInfo == nil && threadID == 0 && !board.NoFileOK {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "a file is required to start a thread"}, app)
		return
	}

	displayName, tripcode := utils.GenerateTripcode(name)
	if displayName == "" {
		displayName = board.Anonymous
	}

	var passwordHash string
	if password != "" {
		passwordHash, err = utils.HashPassword(password)
		if err != nil {
			respondError(w, app, err)
			return
		}
	}

	// Staff replying while logged in post with their role attached.
	role := models.RoleNone
	if _, staffRole, ok := manageIdentity(r); ok && r.FormValue("capcode") != "" {
		role = staffRole
	}

	now := utils.GetSQLTime()
	rendered, truncated := RenderMessage(message, board.TruncateLen)
	post := &models.Post{
		BoardID:          board.ID,
		ParentID:         threadID,
		IP:               net.ParseIP(utils.GetIPAddress(r)),
		Timestamp:        now,
		Role:             role,
		Name:             displayName,
		Tripcode:         tripcode,
		Email:            email,
		Nameblock:        RenderNameblock(displayName, tripcode, email, role, now),
		Subject:          subject,
		Message:          message,
		MessageRendered:  rendered,
		MessageTruncated: truncated,
		Password:         passwordHash,
		Moderated:        true,
	}
	if fileInfo != nil {
		post.File = fileInfo.File
		post.FileHex = fileInfo.FileHex
		post.FileOriginal = fileInfo.FileOrig
		post.FileSize = fileInfo.FileSize
		post.FileSizeFmt = fileInfo.FileSizeFmt
		post.ImageWidth = fileInfo.ImageWidth
		post.ImageHeight = fileInfo.ImageHeight
		post.Thumb = fileInfo.Thumb
		post.ThumbWidth = fileInfo.ThumbWidth
		post.ThumbHeight = fileInfo.ThumbHeight
		post.Spoiler = r.FormValue("spoiler") != ""
	}

	postID, err := app.DB().InsertPost(post)
	if err != nil {
		respondError(w, app, err)
		return
	}

	// Sage replies never advance the thread.
	if threadID != 0 && !strings.EqualFold(email, "sage") {
		if err := app.DB().BumpThread(board.ID, threadID); err != nil {
			app.Logger().Error("Failed to bump thread", "board", board.ID, "thread", threadID, "error", err)
		}
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"board_id":  board.ID,
		"post_id":   postID,
		"parent_id": threadID,
	}, app)
}

// processUpload validates the uploaded file and runs it through the dedup
// index: on a content-hash hit the stored file and derivatives are reused
// instead of re-processing, while the post still records its own copy of the
// metadata.
func processUpload(r *http.Request, app App, board *models.BoardConfig) (*utils.FileInfo, error) {
	file, header, err := r.FormFile("file")
	if err == http.ErrMissingFile || header == nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bad file field: %w", database.ErrValidation)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			app.Logger().Warn("Failed to close upload", "error", cerr)
		}
	}()

	data, err := readUpload(file, int64(board.MaxKB)*1024)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	info := &utils.FileInfo{
		FileHex:     utils.HashFileHex(data),
		FileOrig:    header.Filename,
		FileSize:    int64(len(data)),
		FileSizeFmt: utils.FormatFileSize(int64(len(data))),
	}

	// Dedup: a byte-identical upload reuses the stored file and thumbnail.
	refs, err := app.DB().FindFilesByHex(info.FileHex)
	if err != nil {
		return nil, err
	}
	if len(refs) > 0 {
		ref := refs[0]
		info.File = ref.File
		info.ImageWidth = ref.ImageWidth
		info.ImageHeight = ref.ImageHeight
		info.Thumb = ref.Thumb
		info.ThumbWidth = ref.ThumbWidth
		info.ThumbHeight = ref.ThumbHeight
		return info, nil
	}

	width, height, thumbData, tw, th, err := utils.MakeThumbnail(data, config.ThumbnailWidth, config.ThumbnailHeight)
	if err != nil {
		return nil, fmt.Errorf("unsupported image: %w", database.ErrValidation)
	}
	if width > config.MaxWidth || height > config.MaxHeight {
		return nil, fmt.Errorf("image dimensions exceed %dx%d: %w", config.MaxWidth, config.MaxHeight, database.ErrValidation)
	}
	info.ImageWidth = width
	info.ImageHeight = height
	info.ThumbWidth = tw
	info.ThumbHeight = th

	ext := strings.ToLower(filepath.Ext(header.Filename))
	baseName := uuid.New().String()
	savedPath, err := app.Storage().SaveFile(baseName+ext, data, header.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	info.File = savedPath

	thumbPath, err := app.Storage().SaveFile(baseName+"_thumb.jpg", thumbData, "image/jpeg")
	if err != nil {
		return nil, fmt.Errorf("failed to store thumbnail: %w", err)
	}
	info.Thumb = thumbPath

	return info, nil
}

// readUpload reads the upload into memory, enforcing the board's size cap.
func readUpload(file multipart.File, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file exceeds %d bytes: %w", maxBytes, database.ErrValidation)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

func truncateField(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}

// HandleHideToggle flips the viewer's hide overlay for a thread.
func HandleHideToggle(w http.ResponseWriter, r *http.Request, app App) {
	board, err := app.DB().GetBoard(chi.URLParam(r, "boardID"))
	if err != nil {
		respondError(w, app, err)
		return
	}
	postID, err := parsePostID(chi.URLParam(r, "postID"))
	if err != nil {
		respondError(w, app, err)
		return
	}

	state, err := app.DB().ToggleHide(sessionID(r), board.ID, postID)
	if err != nil {
		respondError(w, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"now_hidden": state.NowHidden}, app)
}

// HandleReport files a report against a post.
func HandleReport(w http.ResponseWriter, r *http.Request, app App) {
	board, err := app.DB().GetBoard(chi.URLParam(r, "boardID"))
	if err != nil {
		respondError(w, app, err)
		return
	}
	postID, err := parsePostID(chi.URLParam(r, "postID"))
	if err != nil {
		respondError(w, app, err)
		return
	}

	reportType := r.FormValue("type")
	if !validReportType(reportType) {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid report type"}, app)
		return
	}

	post, err := app.DB().GetPost(board.ID, postID, false)
	if err != nil {
		respondError(w, app, err)
		return
	}

	ip := net.ParseIP(utils.GetIPAddress(r))
	reportID, err := app.DB().CreateReport(ip, post.BoardID, post.PostID, reportType)
	if err != nil {
		respondError(w, app, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"report_id": reportID}, app)
}

func validReportType(t string) bool {
	for _, rt := range config.ReportTypes {
		if t == rt {
			return true
		}
	}
	return false
}

// HandleDelete soft-deletes the poster's own posts when the supplied deletion
// password matches. Staff logged in as moderator or above skip the password
// check and may choose hard deletion.
func HandleDelete(w http.ResponseWriter, r *http.Request, app App) {
	if err := r.ParseForm(); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed form"}, app)
		return
	}
	password := r.FormValue("password")
	targets := r.Form["delete"]
	if len(targets) == 0 {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "nothing to delete"}, app)
		return
	}

	_, staffRole, staff := manageIdentity(r)
	isStaff := staff && staffRole >= models.RoleModerator
	hard := isStaff && r.FormValue("hard") != ""

	deleted := 0
	for _, target := range targets {
		// Targets are "board/post_id" pairs.
		parts := strings.SplitN(target, "/", 2)
		if len(parts) != 2 {
			continue
		}
		boardID := parts[0]
		postID, err := parsePostID(parts[1])
		if err != nil {
			continue
		}

		post, err := app.DB().GetPost(boardID, postID, false)
		if err != nil {
			continue
		}
		if !isStaff {
			if post.Password == "" || !utils.VerifyPassword(password, post.Password) {
				continue
			}
		}

		if hard {
			err = app.DB().HardDeletePost(boardID, postID)
		} else {
			err = app.DB().SoftDeletePost(boardID, postID)
		}
		if err != nil {
			respondError(w, app, err)
			return
		}
		deleted++
	}

	respondJSON(w, http.StatusOK, map[string]int{"deleted": deleted}, app)
}
