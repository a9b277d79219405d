package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-auth-session/api"
	"github.com/jrsteele09/go-auth-session/credentials"
	errs "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/internal/metrics"
	"github.com/jrsteele09/go-auth-session/profile"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultRefreshTimeout = 30 * time.Second

// Endpoints are the authentication calls of the backend API.
type Endpoints interface {
	Login(ctx context.Context, username, password string) (api.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (api.TokenPair, error)
	Signup(ctx context.Context, req api.SignupRequest) (api.TokenPair, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	ResetPassword(ctx context.Context, email string) error
}

// Profiles is the part of the profile store the actions drive.
type Profiles interface {
	FetchProfile(ctx context.Context)
	UpdateProfile(p *profile.UserProfile)
}

// SessionService runs the authentication actions. Actions never return
// errors: outcomes are recorded on the session store and reported as a bool.
type SessionService struct {
	endpoints      Endpoints
	session        *session.Store
	credentials    *credentials.Store
	profiles       Profiles
	validator      *Validator
	refresher      refreshCoordinator
	refreshTimeout time.Duration
	metrics        *metrics.Collector
	logger         zerolog.Logger
	nowTime        func() time.Time
}

// SessionServiceOption defines a function type to modify the SessionService instance.
type SessionServiceOption func(*SessionService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionServiceOption {
	return func(s *SessionService) {
		s.nowTime = nowFunc
	}
}

// WithRefreshTimeout bounds the refresh network call.
func WithRefreshTimeout(timeout time.Duration) SessionServiceOption {
	return func(s *SessionService) {
		s.refreshTimeout = timeout
	}
}

func WithMetrics(collector *metrics.Collector) SessionServiceOption {
	return func(s *SessionService) {
		s.metrics = collector
	}
}

func WithLogger(logger zerolog.Logger) SessionServiceOption {
	return func(s *SessionService) {
		s.logger = logger
	}
}

// NewSessionService initializes a new SessionService with required dependencies.
func NewSessionService(
	endpoints Endpoints,
	sessionStore *session.Store,
	credentialStore *credentials.Store,
	profiles Profiles,
	options ...SessionServiceOption,
) (*SessionService, error) {
	if endpoints == nil {
		return nil, errors.New("[NewSessionService] endpoints are required")
	}
	if sessionStore == nil {
		return nil, errors.New("[NewSessionService] session store is required")
	}
	if credentialStore == nil {
		return nil, errors.New("[NewSessionService] credential store is required")
	}
	if profiles == nil {
		return nil, errors.New("[NewSessionService] profile store is required")
	}

	s := &SessionService{
		endpoints:      endpoints,
		session:        sessionStore,
		credentials:    credentialStore,
		profiles:       profiles,
		validator:      NewValidator(),
		refreshTimeout: defaultRefreshTimeout,
		logger:         log.Logger,
		nowTime:        time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Session exposes the store the actions write to.
func (s *SessionService) Session() *session.Store {
	return s.session
}

// Login exchanges credentials for tokens. On failure every persisted credential
// is removed and the server message, or a generic one, is recorded.
func (s *SessionService) Login(ctx context.Context, creds LoginCredentials) bool {
	s.session.Begin()

	pair, err := s.endpoints.Login(ctx, creds.Email, creds.Password)
	if err == nil && pair.AccessToken == "" {
		err = EmptyAccessTokenErr
	}
	if err != nil {
		s.logger.Info().Err(err).Msg("login failed")
		s.credentials.ClearTokens()
		s.session.Unauthenticate(failureMessage(err, LoginFailedMsg))
		return false
	}

	s.signIn(ctx, pair)
	s.logger.Info().Msg("login succeeded")
	return true
}

// Logout tears the session down locally. There is no server-side revocation.
func (s *SessionService) Logout() {
	s.credentials.ClearTokens()
	s.session.Unauthenticate("")
	s.profiles.UpdateProfile(nil)
	s.logger.Info().Msg("logged out")
}

// RefreshAccessToken obtains a new access token. Concurrent callers share one
// network call and all receive its outcome. A failed refresh has already
// unauthenticated the session. A caller whose ctx ends while waiting gets
// ctx.Err() and leaves the shared refresh and the session untouched.
func (s *SessionService) RefreshAccessToken(ctx context.Context) (string, error) {
	wait, leader := s.refresher.begin()
	if !leader {
		s.metrics.Coalesce()
		select {
		case outcome := <-wait:
			return outcome.accessToken, outcome.err
		case <-ctx.Done():
			return "", errs.Wrapf(ctx.Err(), "waiting for token refresh")
		}
	}

	outcome := s.leadRefresh(ctx)
	if outcome.err != nil {
		return "", outcome.err
	}
	s.profiles.FetchProfile(ctx)
	return outcome.accessToken, nil
}

// leadRefresh performs the refresh and settles the coordinator, even on panic.
func (s *SessionService) leadRefresh(ctx context.Context) (outcome refreshOutcome) {
	outcome.err = errs.ErrInternal
	defer func() {
		s.refresher.settle(outcome)
	}()

	outcome.accessToken, outcome.err = s.refresh(ctx)
	return outcome
}

func (s *SessionService) refresh(ctx context.Context) (string, error) {
	s.session.Begin()

	refreshToken := s.session.RefreshToken()
	if refreshToken == "" {
		s.metrics.Refresh(metrics.RefreshMissingRefresh)
		s.failRefresh(errs.ErrMissingRefreshToken, MissingRefreshTokenMsg)
		return "", errs.ErrMissingRefreshToken
	}

	// The refresh outlives a cancelled caller: others may be waiting on it.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
	defer cancel()

	pair, err := s.endpoints.RefreshToken(callCtx, refreshToken)
	if err == nil && pair.AccessToken == "" {
		err = EmptyAccessTokenErr
	}
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			s.metrics.Refresh(metrics.RefreshTimeout)
			s.failRefresh(err, RefreshTimedOutMsg)
			return "", errs.Wrapf(errs.ErrRefreshTimeout, "after %s", s.refreshTimeout)
		}
		s.metrics.Refresh(metrics.RefreshFailure)
		s.failRefresh(err, failureMessage(err, RefreshFailedMsg))
		return "", err
	}

	s.credentials.SaveTokens(pair.AccessToken, pair.RefreshToken)
	s.session.Authenticate(pair.AccessToken, pair.RefreshToken)
	s.metrics.Refresh(metrics.RefreshSuccess)
	s.logger.Debug().Msg("access token refreshed")
	return pair.AccessToken, nil
}

func (s *SessionService) failRefresh(err error, message string) {
	s.logger.Warn().Err(err).Msg("token refresh failed")
	s.credentials.ClearTokens()
	s.session.Unauthenticate(message)
}

// Register creates an account. A signup response carrying tokens signs the
// user in; otherwise the session stays unauthenticated.
func (s *SessionService) Register(ctx context.Context, data RegisterData) bool {
	s.session.Begin()

	if err := s.validator.ValidateRegistration(data); err != nil {
		s.session.Fail(PasswordsDontMatchMsg)
		return false
	}

	pair, err := s.endpoints.Signup(ctx, api.SignupRequest{
		Username:  data.Email,
		Password:  data.Password,
		Phone:     data.Phone,
		ShareLink: data.ShareLink,
	})
	if err != nil {
		s.logger.Info().Err(err).Msg("registration failed")
		s.session.Fail(RegistrationFailedMsg)
		return false
	}

	if pair.AccessToken == "" {
		s.session.Done()
		return true
	}
	s.signIn(ctx, pair)
	return true
}

// ChangePassword changes the signed-in user's password.
func (s *SessionService) ChangePassword(ctx context.Context, data ChangePasswordData) bool {
	s.session.Begin()

	if err := s.validator.ValidatePasswordChange(data); err != nil {
		s.session.Fail(NewPasswordsDontMatch)
		return false
	}
	if !s.session.IsAuthenticated() {
		s.session.Fail(NotSignedInMsg)
		return false
	}

	if err := s.endpoints.ChangePassword(ctx, data.CurrentPassword, data.NewPassword); err != nil {
		s.logger.Info().Err(err).Msg("change password failed")
		s.session.Fail(ChangePasswordFailedMsg)
		return false
	}
	s.session.Done()
	return true
}

// ResetPassword requests a password-reset email.
func (s *SessionService) ResetPassword(ctx context.Context, email string) bool {
	s.session.Begin()

	if err := s.validator.ValidateEmail(email); err != nil {
		s.session.Fail(EmailRequiredMsg)
		return false
	}

	if err := s.endpoints.ResetPassword(ctx, email); err != nil {
		s.logger.Info().Err(err).Msg("reset password failed")
		s.session.Fail(ResetPasswordFailedMsg)
		return false
	}
	s.session.Done()
	return true
}

// IsAuthenticated reports the session store flag. The API client consults it
// before attempting a refresh.
func (s *SessionService) IsAuthenticated() bool {
	return s.session.IsAuthenticated()
}

// IsSignedIn is the view-level check: the store has been restored, its flag is
// set and the access-token cookie is still present.
func (s *SessionService) IsSignedIn() bool {
	return s.session.Hydrated() && s.session.IsAuthenticated() && s.credentials.CookieAccessToken() != ""
}

// IsLoggedIn reports whether the held access token has not yet expired.
func (s *SessionService) IsLoggedIn() bool {
	return s.session.IsLoggedIn(s.nowTime())
}

func (s *SessionService) signIn(ctx context.Context, pair api.TokenPair) {
	s.credentials.SaveTokens(pair.AccessToken, pair.RefreshToken)
	s.session.Authenticate(pair.AccessToken, pair.RefreshToken)
	s.profiles.FetchProfile(ctx)
}

// failureMessage prefers a server supplied message.
func failureMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
