// microboard/handlers/handlers.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"microboard/config"
	"microboard/database"
	"microboard/models"
	"microboard/utils"
)

// App is an interface that defines the dependencies our handlers need.
type App interface {
	DB() *database.DatabaseService
	RateLimiter() *models.RateLimiter
	Sessions() *models.SessionStore
	Logger() *slog.Logger
	Storage() utils.Storage
}

// respondJSON sends a JSON response with a given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}, app App) {
	response, err := json.Marshal(payload)
	if err != nil {
		app.Logger().Error("Failed to marshal JSON payload", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte(`{"error":"Failed to marshal JSON response"}`)); werr != nil {
			app.Logger().Error("Failed to write internal server error response", "error", werr)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		app.Logger().Error("Failed to write JSON response", "error", err)
	}
}

// respondError maps store errors onto HTTP statuses and emits a JSON error
// body. Unknown errors are logged and reported as 500 without detail.
func respondError(w http.ResponseWriter, app App, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, database.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, database.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, database.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	default:
		app.Logger().Error("Request failed", "error", err)
	}
	respondJSON(w, status, map[string]string{"error": msg}, app)
}

// MakeHandler adapts a handler function that needs the App dependency.
func MakeHandler(app App, fn func(http.ResponseWriter, *http.Request, App)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, app)
	}
}

// parsePage reads and clamps the ?page query parameter to [0, MaxPage].
func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		return 0
	}
	if page > config.MaxPage {
		return config.MaxPage
	}
	return page
}

// parsePostID parses a board-scoped post number from a URL segment.
func parsePostID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, database.ErrValidation
	}
	return id, nil
}
