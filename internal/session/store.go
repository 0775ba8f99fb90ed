package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/streamlyhq/streamly/internal/shared"
	"golang.org/x/oauth2"
)

const tokenFile = "token.json"

// TokenStore caches the bearer credential in memory and persists it to the
// state directory so a new process can pick it up.
//
// It satisfies the gateway's token cache: Token returns the current access
// token and Clear discards it after the backend rejects it.
type TokenStore struct {
	path string

	mu      sync.Mutex
	current *oauth2.Token
}

// NewTokenStore creates a TokenStore backed by a file under dir.
func NewTokenStore(dir string) *TokenStore {
	return &TokenStore{path: filepath.Join(dir, tokenFile)}
}

// Load reads the persisted credential. A missing file is not an error; the
// store simply starts empty.
func (s *TokenStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return fmt.Errorf("%w: malformed token file at %s", shared.ErrInvalidCredentials, s.path)
	}

	s.mu.Lock()
	s.current = &tok
	s.mu.Unlock()
	return nil
}

// Save caches and persists a new access token with its expiry.
func (s *TokenStore) Save(accessToken string, expiry time.Time) error {
	tok := &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Expiry:      expiry,
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	s.mu.Lock()
	s.current = tok
	s.mu.Unlock()
	return nil
}

// Token returns the cached access token, or empty when none is cached or the
// cached one has expired.
func (s *TokenStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || !s.current.Valid() {
		return ""
	}
	return s.current.AccessToken
}

// Clear discards the credential from memory and disk.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	_ = os.Remove(s.path)
}

// Lifetime reports how long the cached credential remains usable, falling back
// to the given duration when no usable expiry is known.
func (s *TokenStore) Lifetime(fallback time.Duration) time.Duration {
	s.mu.Lock()
	tok := s.current
	s.mu.Unlock()

	if tok == nil || tok.Expiry.IsZero() {
		return fallback
	}
	if remaining := time.Until(tok.Expiry); remaining > time.Minute {
		return remaining
	}
	return fallback
}

// credentialLifetime derives a token's lifetime from its own claims without
// verifying the signature; only the backend can verify it, the client just
// needs the expiry to schedule renewal.
func credentialLifetime(raw string, fallback time.Duration) time.Duration {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return fallback
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fallback
	}

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		if lifetime := exp.Time.Sub(iat.Time); lifetime > 0 {
			return lifetime
		}
	}

	if remaining := time.Until(exp.Time); remaining > 0 {
		return remaining
	}
	return fallback
}
