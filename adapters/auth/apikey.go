// Package auth provides an API-key guard suitable for attaching to
// routes through policy overlays. Keys are stored hashed; the guard
// compares the presented key against every stored hash.
package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stacgate/stacgate/core/registry"
)

// HeaderAPIKey is the request header carrying the key. A bearer token
// in Authorization is accepted as a fallback.
const HeaderAPIKey = "X-API-Key"

// Keyring holds hashed API keys. Safe for concurrent use; keys can be
// added while requests are being verified.
type Keyring struct {
	hasher Hasher

	mu     sync.RWMutex
	hashes [][]byte
}

// NewKeyring creates an empty keyring verifying with the given hasher.
func NewKeyring(hasher Hasher) *Keyring {
	return &Keyring{hasher: hasher}
}

// Add hashes the plaintext key and stores it.
func (k *Keyring) Add(plaintext string) error {
	hash, err := k.hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	k.mu.Lock()
	k.hashes = append(k.hashes, hash)
	k.mu.Unlock()
	return nil
}

// AddHash stores an already-hashed key, e.g. loaded from config.
func (k *Keyring) AddHash(hash []byte) {
	k.mu.Lock()
	k.hashes = append(k.hashes, hash)
	k.mu.Unlock()
}

// Verify reports whether the plaintext matches any stored hash.
func (k *Keyring) Verify(plaintext string) bool {
	if plaintext == "" {
		return false
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	for _, hash := range k.hashes {
		if k.hasher.Compare(hash, plaintext) {
			return true
		}
	}
	return false
}

// Len returns the number of stored keys.
func (k *Keyring) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.hashes)
}

// Guard returns a policy dependency rejecting requests that do not
// present a valid key. The error body matches the engine's shape.
func Guard(keys *Keyring, logger zerolog.Logger) registry.Dependency {
	log := logger.With().Str("component", "auth").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !keys.Verify(keyFromRequest(r)) {
				log.Debug().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("request rejected: invalid api key")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{
					"code":        "UnauthorizedError",
					"description": "missing or invalid API key",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// keyFromRequest extracts the presented key: X-API-Key first, then a
// bearer token.
func keyFromRequest(r *http.Request) string {
	if key := r.Header.Get(HeaderAPIKey); key != "" {
		return key
	}
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return ""
}
