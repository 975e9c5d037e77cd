// microboard/utils/security.go
package utils

import (
	"crypto/sha256"
	"encoding/base64"
	"net"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// TripSalt seasons tripcode derivation. Set once at startup.
var TripSalt string

// GetIPAddress extracts the real client address from a request, trusting
// forwarding headers set by a reverse proxy.
func GetIPAddress(r *http.Request) string {
	if cf := r.Header.Get("CF-Connecting-IP"); cf != "" {
		return cf
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// GenerateTripcode splits a "name#secret" field into a display name and a
// derived identity token. The secret never leaves this function.
func GenerateTripcode(name string) (string, string) {
	parts := strings.SplitN(name, "#", 2)
	displayName := strings.TrimSpace(parts[0])
	if len(parts) < 2 || parts[1] == "" {
		return displayName, ""
	}
	h := sha256.Sum256([]byte(parts[1] + TripSalt))
	trip := base64.StdEncoding.EncodeToString(h[:])
	return displayName, "!" + trip[:10]
}

// HashPassword hashes a password for storage. Used for account passwords and
// per-post deletion passwords alike.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext password against a stored hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
