// Package authtest is an in-memory stand-in for the stacking-plan backend's
// authentication API. It issues HS256 access tokens with group claims and
// single-use refresh tokens, and exposes controls for exercising the client's
// refresh and retry paths.
package authtest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-session/api"
	errs "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/profile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BasePath is where the API is mounted by Handler.
	BasePath = "/api/v1"

	RouteProjects = "/projects"

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

type contextKey string

const contextKeyUser contextKey = "user"

// Server is the fake backend.
type Server struct {
	secret     []byte
	accessTTL  time.Duration
	nowFunc    func() time.Time
	logger     zerolog.Logger
	users      *userRepo
	refresh    *refreshTokens
	router     chi.Router
	generation atomic.Int64 // Access tokens minted before the current generation are rejected

	refreshCalls atomic.Int32
	failRefresh  atomic.Bool
	gateLock     sync.Mutex
	refreshGate  chan struct{}
	resetLock    sync.Mutex
	resets       []string
}

type Option func(*Server)

func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = []byte(secret)
	}
}

// WithAccessTTL sets the lifetime of issued access tokens.
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = ttl
	}
}

func WithNowFunc(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New returns a backend with no users.
func New(options ...Option) *Server {
	s := &Server{
		secret:    []byte(uuid.New().String()),
		accessTTL: defaultAccessTTL,
		nowFunc:   time.Now,
		logger:    log.Logger,
		users:     newUserRepo(bcrypt.MinCost),
	}
	for _, opt := range options {
		opt(s)
	}
	s.refresh = newRefreshTokens(defaultRefreshTTL, s.nowFunc)
	s.router = s.routes()
	return s
}

// Handler serves the API under BasePath.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)

	r.Route(BasePath, func(r chi.Router) {
		r.Post(api.RouteLogin, s.handleLogin)
		r.Post(api.RouteRefreshToken, s.handleRefresh)
		r.Post(api.RouteSignup, s.handleSignup)
		r.Post(api.RouteResetPassword, s.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get(api.RouteMe, s.handleMe)
			r.Post(api.RouteChangePassword, s.handleChangePassword)
			r.Get(RouteProjects, s.handleProjects)
		})
	})
	return r
}

// AddUser creates an account that can sign in with email and password.
func (s *Server) AddUser(email, password string, groups ...string) (*User, error) {
	user := &User{Email: email, Groups: groups, UserType: profile.UserTypeInternal}
	if err := s.users.create(user, password); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a password the way the login endpoint does.
func (s *Server) Authenticate(email, password string) (*User, bool) {
	user, ok := s.users.authenticate(email, password)
	if !ok {
		return nil, false
	}
	return user, true
}

// IssueTokens mints an access token and a fresh refresh token for user.
func (s *Server) IssueTokens(user *User) (api.TokenPair, error) {
	access, err := s.MintAccessToken(user, s.accessTTL)
	if err != nil {
		return api.TokenPair{}, err
	}
	refresh, err := s.refresh.create(user.ID)
	if err != nil {
		return api.TokenPair{}, err
	}
	return api.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// MintAccessToken signs an access token for user valid for ttl.
func (s *Server) MintAccessToken(user *User, ttl time.Duration) (string, error) {
	now := s.nowFunc()
	claims := jwt.MapClaims{
		"sub":    user.ID,
		"email":  user.Email,
		"groups": user.Groups,
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
		"jti":    uuid.New().String(),
		"gen":    s.generation.Load(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ExpireAccessTokens makes every access token issued so far fail with 401,
// while refresh tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.generation.Add(1)
}

// RefreshCalls is the number of refresh requests received.
func (s *Server) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

// FailRefresh makes every refresh request fail with 401 while on.
func (s *Server) FailRefresh(on bool) {
	s.failRefresh.Store(on)
}

// HoldRefresh blocks refresh requests until release is called.
func (s *Server) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	s.gateLock.Lock()
	s.refreshGate = gate
	s.gateLock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.gateLock.Lock()
			s.refreshGate = nil
			s.gateLock.Unlock()
			close(gate)
		})
	}
}

// ResetRequests lists the emails password resets were requested for.
func (s *Server) ResetRequests() []string {
	s.resetLock.Lock()
	defer s.resetLock.Unlock()
	return append([]string(nil), s.resets...)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid form")
		return
	}

	user, ok := s.users.authenticate(r.PostForm.Get("username"), r.PostForm.Get("password"))
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	pair, err := s.IssueTokens(user)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeData(w, http.StatusOK, pair)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	s.gateLock.Lock()
	gate := s.refreshGate
	s.gateLock.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RefreshToken == "" {
		writeMessage(w, http.StatusBadRequest, "Missing refresh token")
		return
	}
	if s.failRefresh.Load() {
		writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	userID, err := s.refresh.consume(body.RefreshToken)
	if err != nil {
		s.logger.Debug().Err(err).Msg("refresh rejected")
		writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	user, err := s.users.getByID(userID)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	pair, err := s.IssueTokens(user)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeData(w, http.StatusOK, pair)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req api.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user := &User{Email: req.Username, ShareLink: req.ShareLink, UserType: profile.UserTypePartner}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if err := s.users.create(user, req.Password); err != nil {
		if errs.Is(err, errs.ErrValidation) {
			writeMessage(w, http.StatusConflict, "User already exists")
			return
		}
		s.internalError(w, err)
		return
	}

	pair, err := s.IssueTokens(user)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeData(w, http.StatusCreated, pair)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewPassword == "" {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, ok := s.users.authenticate(user.Email, body.CurrentPassword); !ok {
		writeMessage(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	if err := s.users.setPassword(user.ID, body.NewPassword); err != nil {
		s.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		writeMessage(w, http.StatusBadRequest, "Email is required")
		return
	}

	s.resetLock.Lock()
	s.resets = append(s.resets, body.Email)
	s.resetLock.Unlock()
	// Unknown addresses get the same answer.
	writeData(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, userFromContext(r.Context()).Profile())
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, []map[string]any{
		{"id": 1, "name": "Riverside Tower", "floors": 24},
		{"id": 2, "name": "Harbour View", "floors": 12},
	})
}

// requireAuth validates the Bearer access token and stores its user in the context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			writeMessage(w, http.StatusUnauthorized, "Missing access token")
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.nowFunc))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Token expired")
			return
		}
		if gen, _ := claims["gen"].(float64); int64(gen) < s.generation.Load() {
			writeMessage(w, http.StatusUnauthorized, "Token expired")
			return
		}

		subject, _ := claims.GetSubject()
		user, err := s.users.getByID(subject)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Unknown user")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("authtest request")
	})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error().Err(err).Msg("authtest internal error")
	writeMessage(w, http.StatusInternalServerError, "Internal server error")
}

func userFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(contextKeyUser).(*User)
	return user
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"data": data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
