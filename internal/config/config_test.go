package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("REFRESH_TIMEOUT", "")
	t.Setenv("ROUTE_POLICY_FILE", "")

	c := config.New()
	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "ACCESS_TOKEN", c.GetAccessTokenKey())
	require.Equal(t, "REFRESH_TOKEN", c.GetRefreshTokenKey())
	require.Equal(t, 30*time.Second, c.GetRefreshTimeout())
	require.Equal(t, 365*24*time.Hour, c.GetCookieBuffer())

	policy, err := c.GetRoutePolicy()
	require.NoError(t, err)
	require.Equal(t, "/sign-in", policy.SignInPath)
}

func TestDurationOverride(t *testing.T) {
	t.Setenv("REFRESH_TIMEOUT", "5s")
	require.Equal(t, 5*time.Second, config.New().GetRefreshTimeout())

	t.Setenv("REFRESH_TIMEOUT", "garbage")
	require.Equal(t, 30*time.Second, config.New().GetRefreshTimeout())
}

func TestLoadRoutePolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	err := os.WriteFile(path, []byte(`
locale: vi
public_routes:
  - /sign-in
  - /reset-password
group_priority: [ops, sales]
group_area_map:
  ops: /ops-home
  sales: /leads
group_access_map:
  sales:
    - /leads
`), 0o600)
	require.NoError(t, err)

	policy, err := config.LoadRoutePolicy(path)
	require.NoError(t, err)
	require.Equal(t, "vi", policy.Locale)
	require.Equal(t, "/sign-in", policy.SignInPath)
	require.Equal(t, []string{"ops", "sales"}, policy.GroupPriority)
	require.Equal(t, "/ops-home", policy.GroupAreaMap["ops"])
	require.Equal(t, []string{"/leads"}, policy.GroupAccessMap["sales"])
}

func TestLoadRoutePolicyMissingFile(t *testing.T) {
	_, err := config.LoadRoutePolicy(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestAccessTokenTTL(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "")
	require.Equal(t, 15*time.Minute, config.New().GetAccessTokenTTL())

	t.Setenv("ACCESS_TOKEN_TTL", "90s")
	require.Equal(t, 90*time.Second, config.New().GetAccessTokenTTL())
}
