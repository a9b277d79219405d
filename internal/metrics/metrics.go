// Package metrics exposes prometheus counters for the session core. A nil
// *Collector is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "session"

// Refresh results
const (
	RefreshSuccess        = "success"
	RefreshFailure        = "failure"
	RefreshTimeout        = "timeout"
	RefreshMissingRefresh = "missing_refresh_token"
)

// Retry outcomes for requests rejected with 401
const (
	RetryReissued        = "reissued"
	RetryExhausted       = "exhausted"
	RetryRefreshFailed   = "refresh_failed"
	RetryUnauthenticated = "unauthenticated"
)

type Collector struct {
	Refreshes     *prometheus.CounterVec
	Coalesced     prometheus.Counter
	Retries       *prometheus.CounterVec
	ForcedLogouts prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		Refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_total",
				Help:      "Network refresh calls by result",
			},
			[]string{"result"},
		),
		Coalesced: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_coalesced_total",
				Help:      "Refresh requests that joined an in-flight refresh",
			},
		),
		Retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unauthorized_responses_total",
				Help:      "Responses with status 401 by handling outcome",
			},
			[]string{"outcome"},
		),
		ForcedLogouts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forced_logouts_total",
				Help:      "Logouts caused by an unrecoverable refresh failure",
			},
		),
	}
}

func (c *Collector) Refresh(result string) {
	if c == nil {
		return
	}
	c.Refreshes.WithLabelValues(result).Inc()
}

func (c *Collector) Coalesce() {
	if c == nil {
		return
	}
	c.Coalesced.Inc()
}

func (c *Collector) Unauthorized(outcome string) {
	if c == nil {
		return
	}
	c.Retries.WithLabelValues(outcome).Inc()
}

func (c *Collector) ForcedLogout() {
	if c == nil {
		return
	}
	c.ForcedLogouts.Inc()
}
