// microboard/handlers/manage.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"time"

	"microboard/models"
	"microboard/utils"
)

// HandleLogin verifies staff credentials, advances the account's lastactive
// and opens a manage session.
func HandleLogin(w http.ResponseWriter, r *http.Request, app App) {
	if err := r.ParseForm(); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed form"}, app)
		return
	}
	username := r.FormValue("username")
	password := r.FormValue("password")
	if len(username) < 2 || len(password) < 2 {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid username or password"}, app)
		return
	}

	account, err := app.DB().GetAccount(username)
	if err != nil || !utils.VerifyPassword(password, account.Password) {
		// Same response for unknown user and wrong password.
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "invalid username or password"}, app)
		return
	}

	account.LastActive = utils.GetSQLTime()
	if err := app.DB().UpdateAccount(account); err != nil {
		respondError(w, app, err)
		return
	}

	token := app.Sessions().Create(account.Username, account.Role)
	http.SetCookie(w, &http.Cookie{
		Name:     "mb_manage",
		Value:    token,
		Path:     "/",
		Expires:  utils.GetTime().Add(12 * time.Hour),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]interface{}{"username": account.Username, "role": account.Role}, app)
}

// HandleLogout destroys the manage session.
func HandleLogout(w http.ResponseWriter, r *http.Request, app App) {
	if cookie, err := r.Cookie("mb_manage"); err == nil {
		app.Sessions().Destroy(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: "mb_manage", Value: "", Path: "/", MaxAge: -1})
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"}, app)
}

// HandleManageHome lists reports for staff; account details are included
// only for superadmins.
func HandleManageHome(w http.ResponseWriter, r *http.Request, app App) {
	username, role, ok := manageIdentity(r)
	if !ok {
		respondJSON(w, http.StatusForbidden, map[string]string{"error": "access denied"}, app)
		return
	}

	reports, err := app.DB().ListReports(100)
	if err != nil {
		respondError(w, app, err)
		return
	}

	payload := map[string]interface{}{
		"username": username,
		"role":     role,
		"reports":  reports,
	}
	if role == models.RoleSuperAdmin {
		accounts, err := app.DB().ListAccountDetails()
		if err != nil {
			respondError(w, app, err)
			return
		}
		payload["accounts"] = accounts
	}
	respondJSON(w, http.StatusOK, payload, app)
}

// HandleBackup takes an online backup of the database. Admin or above.
func HandleBackup(w http.ResponseWriter, r *http.Request, app App) {
	if _, role, ok := manageIdentity(r); !ok || role < models.RoleAdmin {
		respondJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"}, app)
		return
	}
	path, err := app.DB().BackupDatabase(utils.GetEnv("MB_BACKUP_DIR", "./backups"))
	if err != nil {
		respondError(w, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"backup": path}, app)
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// HandleRebuild regenerates the pre-rendered display fields for every post
// on a board. Imported rows get their foreign HTML stripped before
// re-rendering. Superadmin only.
func HandleRebuild(w http.ResponseWriter, r *http.Request, app App) {
	if _, role, ok := manageIdentity(r); !ok || role != models.RoleSuperAdmin {
		respondJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"}, app)
		return
	}
	boardID := r.FormValue("board_id")
	board, err := app.DB().GetBoard(boardID)
	if err != nil {
		respondError(w, app, err)
		return
	}

	posts, err := app.DB().ListRebuildPosts(board.ID)
	if err != nil {
		respondError(w, app, err)
		return
	}

	processed := 0
	for _, p := range posts {
		name := p.Name
		if name == "" {
			name = board.Anonymous
		}
		message := p.Message
		if p.Imported {
			message = tagPattern.ReplaceAllString(message, "")
		}

		rendered, truncated := RenderMessage(message, board.TruncateLen)
		nameblock := RenderNameblock(name, p.Tripcode, p.Email, p.Role, p.Timestamp)
		if err := app.DB().UpdateRenderedPost(p.BoardID, p.PostID, rendered, truncated, nameblock); err != nil {
			respondError(w, app, fmt.Errorf("rebuild stopped at /%s/%d after %d/%d: %w",
				p.BoardID, p.PostID, processed, len(posts), err))
			return
		}
		processed++
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"board_id": board.ID, "processed": processed, "total": len(posts)}, app)
}

// importPostRow is one foreign post row submitted to the import endpoint.
// The foreign numeric thread reference ("parent") is remapped to parent_id
// and every row is tagged imported.
type importPostRow struct {
	ID           int64  `json:"id"`
	Parent       int64  `json:"parent"`
	Timestamp    int64  `json:"timestamp"`
	Bumped       int64  `json:"bumped"`
	Name         string `json:"name"`
	Tripcode     string `json:"tripcode"`
	Email        string `json:"email"`
	Nameblock    string `json:"nameblock"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`
	Password     string `json:"password"`
	File         string `json:"file"`
	FileHex      string `json:"file_hex"`
	FileOriginal string `json:"file_original"`
	FileSize     int64  `json:"file_size"`
	FileSizeFmt  string `json:"file_size_formatted"`
	ImageWidth   int    `json:"image_width"`
	ImageHeight  int    `json:"image_height"`
	Thumb        string `json:"thumb"`
	ThumbWidth   int    `json:"thumb_width"`
	ThumbHeight  int    `json:"thumb_height"`
	Country      string `json:"country_code"`
	Stickied     bool   `json:"stickied"`
	Moderated    bool   `json:"moderated"`
	Locked       bool   `json:"locked"`
}

type importRequest struct {
	BoardID string          `json:"board_id"`
	Posts   []importPostRow `json:"posts"`
}

// HandleImport bulk-copies posts migrated from a foreign schema into the
// store, preserving their post numbers. Superadmin only.
func HandleImport(w http.ResponseWriter, r *http.Request, app App) {
	if _, role, ok := manageIdentity(r); !ok || role != models.RoleSuperAdmin {
		respondJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"}, app)
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed import payload"}, app)
		return
	}
	board, err := app.DB().GetBoard(req.BoardID)
	if err != nil {
		respondError(w, app, err)
		return
	}

	posts := make([]models.Post, 0, len(req.Posts))
	for _, row := range req.Posts {
		posts = append(posts, models.Post{
			BoardID:         board.ID,
			PostID:          row.ID,
			ParentID:        row.Parent,
			IP:              net.ParseIP("127.0.0.1"),
			Timestamp:       time.Unix(row.Timestamp, 0).UTC(),
			Bumped:          time.Unix(row.Bumped, 0).UTC(),
			Name:            row.Name,
			Tripcode:        row.Tripcode,
			Email:           row.Email,
			Nameblock:       row.Nameblock,
			Subject:         row.Subject,
			Message:         row.Message,
			MessageRendered: row.Message,
			Password:        row.Password,
			File:            row.File,
			FileHex:         row.FileHex,
			FileOriginal:    row.FileOriginal,
			FileSize:        row.FileSize,
			FileSizeFmt:     row.FileSizeFmt,
			ImageWidth:      row.ImageWidth,
			ImageHeight:     row.ImageHeight,
			Thumb:           row.Thumb,
			ThumbWidth:      row.ThumbWidth,
			ThumbHeight:     row.ThumbHeight,
			Country:         row.Country,
			Stickied:        row.Stickied,
			Moderated:       row.Moderated,
			Locked:          row.Locked,
		})
	}

	inserted, err := app.DB().ImportPosts(board.ID, posts)
	if err != nil {
		respondError(w, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"board_id": board.ID, "inserted": inserted}, app)
}
