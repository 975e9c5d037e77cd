// microboard/handlers/middleware.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"microboard/utils"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// SessionKey holds the opaque per-viewer session identifier used to
	// scope the hide overlay. The core treats it as equality-only.
	SessionKey ContextKey = "viewerSession"
	// ManageUserKey / ManageRoleKey hold the staff identity, when logged in.
	ManageUserKey ContextKey = "manageUser"
	ManageRoleKey ContextKey = "manageRole"
)

// SessionMiddleware ensures every viewer has a persistent session cookie and
// exposes its value as the visibility-scoping key.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("mb_session")
		var sessionID string
		if err != nil || cookie.Value == "" {
			sessionID = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     "mb_session",
				Value:    sessionID,
				Path:     "/",
				Expires:  utils.GetTime().Add(365 * 24 * time.Hour),
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		} else {
			sessionID = cookie.Value
		}

		ctx := context.WithValue(r.Context(), SessionKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionID pulls the viewer session from the request context.
func sessionID(r *http.Request) string {
	if s, ok := r.Context().Value(SessionKey).(string); ok {
		return s
	}
	return ""
}

// ManageMiddleware resolves the manage-area cookie into a staff identity.
// Requests without a live session pass through anonymous.
func ManageMiddleware(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("mb_manage")
			if err == nil && cookie.Value != "" {
				if username, role, ok := app.Sessions().Get(cookie.Value); ok {
					ctx := context.WithValue(r.Context(), ManageUserKey, username)
					ctx = context.WithValue(ctx, ManageRoleKey, role)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// manageIdentity returns the logged-in staff identity, if any.
func manageIdentity(r *http.Request) (username string, role int, ok bool) {
	username, uok := r.Context().Value(ManageUserKey).(string)
	role, rok := r.Context().Value(ManageRoleKey).(int)
	return username, role, uok && rok
}

// RateLimitMiddleware applies the per-IP token bucket to mutating endpoints.
func RateLimitMiddleware(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.GetIPAddress(r)
			if !app.RateLimiter().GetLimiter(ip).Allow() {
				respondJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"}, app)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewStructuredLogger logs each request through slog in the chi middleware
// chain.
func NewStructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"ip", utils.GetIPAddress(r),
			)
		})
	}
}
