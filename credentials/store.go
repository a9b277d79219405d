package credentials

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/go-auth-session/storage"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultAccessTokenCookie = "access_token"
	defaultAccessTokenKey    = "ACCESS_TOKEN"
	defaultRefreshTokenKey   = "REFRESH_TOKEN"
	defaultCookieBuffer      = 365 * 24 * time.Hour
)

// Keys names the storage locations of the tokens.
type Keys struct {
	AccessTokenCookie string // Cookie mirroring the access token
	AccessToken       string // Persistent-store key of the access token
	RefreshToken      string // Persistent-store key of the refresh token
}

// Store owns the canonical persisted access and refresh token values.
type Store struct {
	cookies      CookieJar
	persistent   *storage.KV
	keys         Keys
	cookieBuffer time.Duration
	nowFunc      func() time.Time
	logger       zerolog.Logger
}

type StoreOption func(*Store)

func WithKeys(keys Keys) StoreOption {
	return func(s *Store) {
		if keys.AccessTokenCookie != "" {
			s.keys.AccessTokenCookie = keys.AccessTokenCookie
		}
		if keys.AccessToken != "" {
			s.keys.AccessToken = keys.AccessToken
		}
		if keys.RefreshToken != "" {
			s.keys.RefreshToken = keys.RefreshToken
		}
	}
}

// WithCookieBuffer sets how long the access-token cookie outlives the token itself.
func WithCookieBuffer(buffer time.Duration) StoreOption {
	return func(s *Store) {
		s.cookieBuffer = buffer
	}
}

func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a credential Store. A nil cookie jar or KV behaves as empty storage.
func New(cookies CookieJar, persistent *storage.KV, options ...StoreOption) *Store {
	s := &Store{
		cookies:    cookies,
		persistent: persistent,
		keys: Keys{
			AccessTokenCookie: defaultAccessTokenCookie,
			AccessToken:       defaultAccessTokenKey,
			RefreshToken:      defaultRefreshTokenKey,
		},
		cookieBuffer: defaultCookieBuffer,
		logger:       log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.nowFunc == nil {
		s.nowFunc = time.Now
	}
	return s
}

func (s *Store) Keys() Keys {
	return s.keys
}

// Persistent exposes the underlying key/value store.
func (s *Store) Persistent() *storage.KV {
	return s.persistent
}

// GetCookie returns the cookie value, or "" when absent or when no jar is available.
func (s *Store) GetCookie(name string) string {
	if s.cookies == nil {
		return ""
	}
	c, ok := s.cookies.Get(name)
	if !ok {
		return ""
	}
	return c.Value
}

// GetCookieJSON decodes a JSON cookie value into out.
func (s *Store) GetCookieJSON(name string, out any) bool {
	raw := s.GetCookie(name)
	if raw == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

type CookieOption func(*http.Cookie)

func WithMaxAge(seconds int) CookieOption {
	return func(c *http.Cookie) {
		c.MaxAge = seconds
	}
}

// SetCookie writes a cookie with path "/", Secure and SameSite=Lax unless overridden.
// Non-string values are JSON encoded.
func (s *Store) SetCookie(name string, value any, options ...CookieOption) error {
	if s.cookies == nil {
		return nil
	}
	data, err := storage.Serialize(value)
	if err != nil {
		return err
	}
	c := &http.Cookie{
		Name:     name,
		Value:    data,
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
	for _, opt := range options {
		opt(c)
	}
	s.cookies.Set(c)
	return nil
}

func (s *Store) RemoveCookie(name string) {
	if s.cookies == nil {
		return
	}
	s.cookies.Delete(name)
}

// SetAccessToken mirrors the access token into its cookie. Tokens without an
// exp claim or already expired are not written. It reports whether a write happened.
func (s *Store) SetAccessToken(raw string) bool {
	if raw == "" {
		return false
	}

	claims := token.DecodeOrEmpty(raw)
	remaining, ok := claims.RemainingSeconds(s.nowFunc())
	if !ok {
		s.logger.Warn().Msg("No exp in token")
		return false
	}
	if remaining <= 0 {
		s.logger.Warn().Msg("Token expired already")
		return false
	}

	maxAge := remaining + int64(s.cookieBuffer/time.Second)
	if err := s.SetCookie(s.keys.AccessTokenCookie, raw, WithMaxAge(int(maxAge))); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write access token cookie")
		return false
	}
	return true
}

// CookieAccessToken returns the access token mirrored in the cookie.
func (s *Store) CookieAccessToken() string {
	return s.GetCookie(s.keys.AccessTokenCookie)
}

func (s *Store) PersistedAccessToken() string {
	return s.persistent.Get(s.keys.AccessToken)
}

func (s *Store) PersistedRefreshToken() string {
	return s.persistent.Get(s.keys.RefreshToken)
}

// SaveTokens writes the cookie and both persistent keys in one step. When the
// access token cannot be mirrored, the previous token's cookie is removed.
func (s *Store) SaveTokens(accessToken, refreshToken string) {
	if !s.SetAccessToken(accessToken) {
		s.RemoveCookie(s.keys.AccessTokenCookie)
	}
	if err := s.persistent.Set(s.keys.AccessToken, accessToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist access token")
	}
	if err := s.persistent.Set(s.keys.RefreshToken, refreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist refresh token")
	}
}

// ClearTokens removes both persisted tokens and the access-token cookie.
func (s *Store) ClearTokens() {
	if err := s.persistent.Remove(s.keys.AccessToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to remove access token")
	}
	if err := s.persistent.Remove(s.keys.RefreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to remove refresh token")
	}
	s.RemoveCookie(s.keys.AccessTokenCookie)
}
