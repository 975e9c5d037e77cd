// microboard/models/services.go
package models

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// --- Stateful Services ---

// RateLimiter tracks a token bucket per client IP for the posting endpoints.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	every    time.Duration
	burst    int
	expire   time.Duration
}

// NewRateLimiter creates a rate limiter and starts its background pruner.
func NewRateLimiter(every time.Duration, burst int, prune, expire time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		every:    every,
		burst:    burst,
		expire:   expire,
	}
	go rl.cleanup(prune)
	return rl
}

// GetLimiter retrieves or creates the limiter for a given IP address.
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, exists := rl.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(rl.every), rl.burst)
		rl.limiters[ip] = limiter
	}
	rl.lastSeen[ip] = time.Now()
	return limiter
}

// cleanup periodically removes entries not seen within the expiry window.
func (rl *RateLimiter) cleanup(prune time.Duration) {
	for range time.Tick(prune) {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.expire)
		for ip, lastSeen := range rl.lastSeen {
			if lastSeen.Before(cutoff) {
				delete(rl.limiters, ip)
				delete(rl.lastSeen, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// --- Manage Session Store ---

// manageSession is a logged-in staff session.
type manageSession struct {
	Username string
	Role     int
	Expires  time.Time
}

// SessionStore keeps manage-area login sessions in memory, keyed by an opaque
// token handed to the client as a cookie.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]manageSession
	ttl      time.Duration
}

// NewSessionStore creates a session store with the given session lifetime.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{sessions: make(map[string]manageSession), ttl: ttl}
}

// Create registers a new session and returns its token.
func (ss *SessionStore) Create(username string, role int) string {
	token := uuid.New().String()
	ss.mu.Lock()
	ss.sessions[token] = manageSession{Username: username, Role: role, Expires: time.Now().Add(ss.ttl)}
	ss.mu.Unlock()
	return token
}

// Get resolves a token to its account identity, if the session is live.
func (ss *SessionStore) Get(token string) (username string, role int, ok bool) {
	ss.mu.RLock()
	s, exists := ss.sessions[token]
	ss.mu.RUnlock()
	if !exists || time.Now().After(s.Expires) {
		return "", 0, false
	}
	return s.Username, s.Role, true
}

// Destroy removes a session.
func (ss *SessionStore) Destroy(token string) {
	ss.mu.Lock()
	delete(ss.sessions, token)
	ss.mu.Unlock()
}
