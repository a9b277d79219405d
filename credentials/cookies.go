package credentials

import (
	"net/http"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-session/storage"
	"github.com/rs/zerolog/log"
)

// CookieJar is the cookie side of the credential store.
type CookieJar interface {
	Get(name string) (*http.Cookie, bool)
	Set(cookie *http.Cookie)
	Delete(name string)
}

var _ CookieJar = (*MemoryCookies)(nil)

// MemoryCookies keeps cookies in process and honours MaxAge against its clock.
type MemoryCookies struct {
	cookies map[string]storedCookie
	nowFunc func() time.Time
	lock    sync.RWMutex
}

type storedCookie struct {
	cookie    http.Cookie
	expiresAt time.Time // zero for session cookies
}

func NewMemoryCookies(nowFunc func() time.Time) *MemoryCookies {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &MemoryCookies{
		cookies: make(map[string]storedCookie),
		nowFunc: nowFunc,
	}
}

func (m *MemoryCookies) Get(name string) (*http.Cookie, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	stored, ok := m.cookies[name]
	if !ok {
		return nil, false
	}
	if !stored.expiresAt.IsZero() && !m.nowFunc().Before(stored.expiresAt) {
		return nil, false
	}
	c := stored.cookie
	return &c, true
}

// Set stores the cookie. A negative MaxAge deletes it, as a browser would.
func (m *MemoryCookies) Set(cookie *http.Cookie) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if cookie.MaxAge < 0 {
		delete(m.cookies, cookie.Name)
		return
	}
	stored := storedCookie{cookie: *cookie}
	switch {
	case cookie.MaxAge > 0:
		stored.expiresAt = m.nowFunc().Add(time.Duration(cookie.MaxAge) * time.Second)
	case !cookie.Expires.IsZero():
		stored.expiresAt = cookie.Expires
	}
	m.cookies[cookie.Name] = stored
}

func (m *MemoryCookies) Delete(name string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.cookies, name)
}

var _ CookieJar = (*PersistentCookies)(nil)

const cookieKeyPrefix = "cookie:"

// PersistentCookies keeps cookies in a storage.KV so they survive restarts of
// non-browser clients such as the CLI.
type PersistentCookies struct {
	kv      *storage.KV
	nowFunc func() time.Time
}

type persistedCookie struct {
	Value     string `json:"value"`
	Path      string `json:"path,omitempty"`
	ExpiresAt int64  `json:"expiresAt,omitempty"` // Epoch seconds, 0 for session cookies
}

func NewPersistentCookies(kv *storage.KV, nowFunc func() time.Time) *PersistentCookies {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &PersistentCookies{kv: kv, nowFunc: nowFunc}
}

func (p *PersistentCookies) Get(name string) (*http.Cookie, bool) {
	var stored persistedCookie
	if !p.kv.GetJSON(cookieKeyPrefix+name, &stored) {
		return nil, false
	}
	if stored.ExpiresAt != 0 && !p.nowFunc().Before(time.Unix(stored.ExpiresAt, 0)) {
		return nil, false
	}
	return &http.Cookie{Name: name, Value: stored.Value, Path: stored.Path}, true
}

// Set stores the cookie. A negative MaxAge deletes it.
func (p *PersistentCookies) Set(cookie *http.Cookie) {
	if cookie.MaxAge < 0 {
		p.Delete(cookie.Name)
		return
	}
	stored := persistedCookie{Value: cookie.Value, Path: cookie.Path}
	switch {
	case cookie.MaxAge > 0:
		stored.ExpiresAt = p.nowFunc().Add(time.Duration(cookie.MaxAge) * time.Second).Unix()
	case !cookie.Expires.IsZero():
		stored.ExpiresAt = cookie.Expires.Unix()
	}
	if err := p.kv.Set(cookieKeyPrefix+cookie.Name, stored); err != nil {
		log.Warn().Err(err).Str("cookie", cookie.Name).Msg("failed to persist cookie")
	}
}

func (p *PersistentCookies) Delete(name string) {
	if err := p.kv.Remove(cookieKeyPrefix + name); err != nil {
		log.Warn().Err(err).Str("cookie", name).Msg("failed to remove cookie")
	}
}
