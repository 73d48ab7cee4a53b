// internal/security/security.go
package security

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"kitchenback/internal/config"
	"kitchenback/internal/errs"
	"kitchenback/internal/logger"
)

// Roles the caller may claim. The back office never authenticates; the
// front door (or a reverse proxy) is expected to have done that already.
// Role gating here only keeps staff devices from closing a count by
// accident.
const (
	RoleManager = "manager"
	RoleChef    = "chef"
	RoleCook    = "cook"
)

// Identity is the caller-supplied (user, role) pair recorded on entries and
// checked for role-gated operations.
type Identity struct {
	User string `json:"user"`
	Role string `json:"role"`
}

// CanManage reports whether the identity may open, complete or delete
// sessions and create checklists.
func (id Identity) CanManage() bool {
	return id.Role == RoleManager || id.Role == RoleChef
}

// RequireManager returns a core error when a role-gated operation is called
// by a plain staff identity.
func RequireManager(id Identity) error {
	if !id.CanManage() {
		return fmt.Errorf("role %q may not manage sessions: %w", id.Role, errs.ErrValidation)
	}
	return nil
}

type tokenInfo struct {
	identity Identity
	expiry   time.Time
}

var (
	accessTokens   = make(map[string]tokenInfo)
	accessTokensMu sync.Mutex
	accessTokenTTL = time.Hour * 12
)

// IssueAccessToken mints a device token bound to an identity.
func IssueAccessToken(id Identity) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(b)

	accessTokensMu.Lock()
	accessTokens[token] = tokenInfo{identity: id, expiry: time.Now().Add(accessTokenTTL)}
	accessTokensMu.Unlock()

	return token, nil
}

// LookupToken resolves a token to its identity. Expired tokens are treated
// as unknown.
func LookupToken(token string) (Identity, bool) {
	accessTokensMu.Lock()
	defer accessTokensMu.Unlock()

	info, ok := accessTokens[token]
	if !ok || time.Now().After(info.expiry) {
		return Identity{}, false
	}
	return info.identity, true
}

// TokenHandler issues an access token for a caller-supplied identity.
func TokenHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var id Identity
	if err := json.NewDecoder(r.Body).Decode(&id); err != nil || id.User == "" || id.Role == "" {
		http.Error(w, "user and role are required", http.StatusBadRequest)
		return
	}

	token, err := IssueAccessToken(id)
	if err != nil {
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"access_token": token})
}

// CleanExpiredTokens periodically cleans up expired access tokens.
func CleanExpiredTokens() {
	ticker := time.NewTicker(time.Minute * 5)
	defer ticker.Stop()

	for range ticker.C {
		accessTokensMu.Lock()
		for token, info := range accessTokens {
			if time.Now().After(info.expiry) {
				delete(accessTokens, token)
			}
		}
		accessTokensMu.Unlock()
		logger.LogInfo("Access token cleanup completed")
	}
}

// AddCORSHeaders adds CORS headers and handles OPTIONS requests globally.
func AddCORSHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", config.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-Name, X-User-Role, X-Access-Token")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
