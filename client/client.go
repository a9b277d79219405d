// Package client assembles the session core: storage, credentials, the session
// and profile stores, the API client and the authentication actions.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-auth-session/api"
	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/credentials"
	"github.com/jrsteele09/go-auth-session/guard"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/internal/metrics"
	"github.com/jrsteele09/go-auth-session/profile"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/storage"
	"github.com/jrsteele09/go-auth-session/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client owns one user's session. Everything is wired once in New and
// shared by the accessors.
type Client struct {
	kv          *storage.KV
	credentials *credentials.Store
	session     *session.Store
	profiles    *profile.Store
	api         *api.Client
	auth        *auth.SessionService
	metrics     *metrics.Collector
	policy      guard.Policy
	logger      zerolog.Logger
}

type options struct {
	backend    storage.Backend
	cookies    credentials.CookieJar
	httpClient *http.Client
	notifier   api.Notifier
	registerer prometheus.Registerer
	nowFunc    func() time.Time
	logger     zerolog.Logger
}

type Option func(*options)

// WithStorage replaces the backend chosen from STORAGE_FILE.
func WithStorage(backend storage.Backend) Option {
	return func(o *options) {
		o.backend = backend
	}
}

// WithCookieJar replaces the storage backed cookie jar, e.g. with a browser bridge.
func WithCookieJar(cookies credentials.CookieJar) Option {
	return func(o *options) {
		o.cookies = cookies
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

func WithNotifier(notifier api.Notifier) Option {
	return func(o *options) {
		o.notifier = notifier
	}
}

// WithRegisterer registers the session metrics on reg instead of a private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

func WithNowFunc(nowFunc func() time.Time) Option {
	return func(o *options) {
		o.nowFunc = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New builds the client and restores any persisted session.
func New(cfg config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("[client.New] config is required")
	}
	o := options{
		nowFunc: time.Now,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.backend == nil {
		if path := cfg.GetStorageFile(); path != "" {
			o.backend = storage.NewFile(path)
		} else {
			o.backend = storage.NewMemory()
		}
	}
	if o.registerer == nil {
		o.registerer = prometheus.NewRegistry()
	}

	policy, err := cfg.GetRoutePolicy()
	if err != nil {
		return nil, fmt.Errorf("[client.New] route policy: %w", err)
	}

	c := &Client{
		kv:      storage.New(o.backend, storage.WithLogger(o.logger)),
		metrics: metrics.New(o.registerer),
		policy:  policy,
		logger:  o.logger,
	}
	if o.cookies == nil {
		o.cookies = credentials.NewPersistentCookies(c.kv, o.nowFunc)
	}

	c.credentials = credentials.New(o.cookies, c.kv,
		credentials.WithKeys(credentials.Keys{
			AccessTokenCookie: cfg.GetAccessTokenCookie(),
			AccessToken:       cfg.GetAccessTokenKey(),
			RefreshToken:      cfg.GetRefreshTokenKey(),
		}),
		credentials.WithCookieBuffer(cfg.GetCookieBuffer()),
		credentials.WithNowFunc(o.nowFunc),
		credentials.WithLogger(o.logger),
	)
	c.session = session.New(c.credentials, store.WithLogger[session.State](o.logger))

	apiOptions := []api.ClientOption{
		api.WithTimeout(cfg.GetHTTPTimeout()),
		api.WithBearer(api.FirstNonEmpty(
			c.session.AccessToken,
			c.credentials.CookieAccessToken,
			c.credentials.PersistedAccessToken,
		)),
		api.WithMetrics(c.metrics),
		api.WithLogger(o.logger),
	}
	if o.httpClient != nil {
		apiOptions = append([]api.ClientOption{api.WithHTTPClient(o.httpClient)}, apiOptions...)
	}
	if o.notifier != nil {
		apiOptions = append(apiOptions, api.WithNotifier(o.notifier))
	}
	if c.api, err = api.New(cfg.GetAPIBaseURL(), apiOptions...); err != nil {
		return nil, fmt.Errorf("[client.New] api client: %w", err)
	}

	c.profiles = profile.NewStore(c.kv, c.api, profile.WithLogger(o.logger))

	c.auth, err = auth.NewSessionService(c.api, c.session, c.credentials, c.profiles,
		auth.WithNowTime(o.nowFunc),
		auth.WithRefreshTimeout(cfg.GetRefreshTimeout()),
		auth.WithMetrics(c.metrics),
		auth.WithLogger(o.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("[client.New] session service: %w", err)
	}
	c.api.SetSessionHooks(c.auth)

	c.session.Hydrate()
	c.profiles.Hydrate()
	return c, nil
}

func (c *Client) Auth() *auth.SessionService {
	return c.auth
}

func (c *Client) API() *api.Client {
	return c.api
}

func (c *Client) Session() *session.Store {
	return c.session
}

func (c *Client) Profiles() *profile.Store {
	return c.profiles
}

func (c *Client) Credentials() *credentials.Store {
	return c.credentials
}

func (c *Client) Metrics() *metrics.Collector {
	return c.metrics
}

func (c *Client) Policy() guard.Policy {
	return c.policy
}

// Guard starts a route guard at path driven by this client's session.
func (c *Client) Guard(navigator guard.Navigator, path string) *guard.Guard {
	return guard.New(c.policy, c.session, c.auth, navigator, path, guard.WithLogger(c.logger))
}

// Get fetches an API resource through the full request pipeline.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.api.Do(ctx, &api.Request{Method: http.MethodGet, Path: path}, out)
}
