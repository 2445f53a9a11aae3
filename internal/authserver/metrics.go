// ABOUTME: Prometheus metrics for the auth service
// ABOUTME: Counts challenges, issued tokens by kind, and failures by reason

package authserver

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "searcher_auth"

// Metrics holds the auth service collectors.
type Metrics struct {
	ChallengesIssued prometheus.Counter
	TokensIssued     *prometheus.CounterVec
	Failures         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChallengesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "challenges_issued_total",
			Help:      "Challenges handed out by GenerateAuthChallenge.",
		}),
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tokens_issued_total",
			Help:      "Tokens minted, by kind.",
		}, []string{"kind"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "failures_total",
			Help:      "Rejected auth requests, by reason.",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.ChallengesIssued, m.TokensIssued, m.Failures)
	}
	return m
}
