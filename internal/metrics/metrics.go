package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "church"

// Metrics holds the Prometheus collectors for the members area. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	loginLinks      *prometheus.CounterVec
	loginsCompleted *prometheus.CounterVec
	sessionRefresh  *prometheus.CounterVec
	authRedirects   *prometheus.CounterVec
	memberLookups   *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		loginLinks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_links_requested_total",
			Help:      "One-time sign-in links requested, by provider outcome",
		}, []string{"result"}),

		loginsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_completed_total",
			Help:      "Login callbacks by completion strategy and result",
		}, []string{"strategy", "result"}),

		sessionRefresh: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_refreshes_total",
			Help:      "Session refresh attempts against the identity provider",
		}, []string{"result"}),

		authRedirects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_redirects_total",
			Help:      "Requests redirected to the login page",
		}, []string{"reason"}),

		memberLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "member_lookups_total",
			Help:      "Member lookups by outcome",
		}, []string{"result"}),

		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}, []string{"route"}),
	}
}

func (m *Metrics) LoginLinkRequested(result string) {
	if m == nil {
		return
	}
	m.loginLinks.WithLabelValues(result).Inc()
}

func (m *Metrics) LoginCompleted(strategy, result string) {
	if m == nil {
		return
	}
	m.loginsCompleted.WithLabelValues(strategy, result).Inc()
}

func (m *Metrics) SessionRefreshed(result string) {
	if m == nil {
		return
	}
	m.sessionRefresh.WithLabelValues(result).Inc()
}

func (m *Metrics) AuthRedirect(reason string) {
	if m == nil {
		return
	}
	m.authRedirects.WithLabelValues(reason).Inc()
}

func (m *Metrics) MemberLookup(result string) {
	if m == nil {
		return
	}
	m.memberLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) RateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(route).Inc()
}
