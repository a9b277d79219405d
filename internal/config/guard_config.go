package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type GuardConfig interface {
	GetRoutePolicy() (RoutePolicy, error)
}

// RoutePolicy is the navigation policy evaluated by the route guard.
type RoutePolicy struct {
	PublicRoutes   []string            `mapstructure:"public_routes"`
	Locale         string              `mapstructure:"locale"`
	SignInPath     string              `mapstructure:"sign_in_path"`
	GroupPriority  []string            `mapstructure:"group_priority"`
	GroupAreaMap   map[string]string   `mapstructure:"group_area_map"`
	GroupAccessMap map[string][]string `mapstructure:"group_access_map"`
}

type Guard struct{}

var _ GuardConfig = Guard{}

// GetRoutePolicy loads the policy named by ROUTE_POLICY_FILE, or a policy with
// only the locale and sign-in path set when no file is configured.
func (Guard) GetRoutePolicy() (RoutePolicy, error) {
	path := EnvVars{}.GetRoutePolicyFile()
	if path == "" {
		return RoutePolicy{Locale: EnvVars{}.GetLocale(), SignInPath: "/sign-in"}, nil
	}
	return LoadRoutePolicy(path)
}

// LoadRoutePolicy reads a YAML, JSON or TOML policy file. Missing locale and
// sign-in path fall back to the LOCALE env var and "/sign-in".
func LoadRoutePolicy(path string) (RoutePolicy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("locale", EnvVars{}.GetLocale())
	v.SetDefault("sign_in_path", "/sign-in")

	if err := v.ReadInConfig(); err != nil {
		return RoutePolicy{}, fmt.Errorf("config.LoadRoutePolicy ReadInConfig: %w", err)
	}

	var policy RoutePolicy
	if err := v.Unmarshal(&policy); err != nil {
		return RoutePolicy{}, fmt.Errorf("config.LoadRoutePolicy Unmarshal: %w", err)
	}
	return policy, nil
}
