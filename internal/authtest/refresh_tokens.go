package authtest

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	errs "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/pkg/errors"
)

const refreshTokenBytes = 32

type storedRefreshToken struct {
	token  string
	userID string
	iat    time.Time
}

// refreshTokens issues single-use refresh tokens, one live token per user.
type refreshTokens struct {
	tokens  map[string]*storedRefreshToken
	userIDs map[string]string // user ID to token
	expiry  time.Duration
	nowFunc func() time.Time
	lock    sync.Mutex
}

func newRefreshTokens(expiry time.Duration, nowFunc func() time.Time) *refreshTokens {
	return &refreshTokens{
		tokens:  make(map[string]*storedRefreshToken),
		userIDs: make(map[string]string),
		expiry:  expiry,
		nowFunc: nowFunc,
	}
}

// create replaces any live token of userID with a new one.
func (rt *refreshTokens) create(userID string) (string, error) {
	tokenBytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "failed to generate random bytes")
	}
	token := hex.EncodeToString(tokenBytes)

	rt.lock.Lock()
	defer rt.lock.Unlock()

	if existing, ok := rt.userIDs[userID]; ok {
		delete(rt.tokens, existing)
	}
	rt.tokens[token] = &storedRefreshToken{token: token, userID: userID, iat: rt.nowFunc()}
	rt.userIDs[userID] = token
	return token, nil
}

// consume spends token and returns the user it was issued to. A token can be
// consumed once.
func (rt *refreshTokens) consume(token string) (string, error) {
	rt.lock.Lock()
	defer rt.lock.Unlock()

	stored, ok := rt.tokens[token]
	if !ok {
		return "", errors.Wrap(errs.ErrUnauthenticated, "unknown refresh token")
	}
	delete(rt.tokens, token)
	delete(rt.userIDs, stored.userID)

	if rt.nowFunc().Sub(stored.iat) > rt.expiry {
		return "", errors.Wrap(errs.ErrTokenExpired, "refresh token expired")
	}
	return stored.userID, nil
}
