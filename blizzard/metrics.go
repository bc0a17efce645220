package blizzard

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts executor activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests      *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	tokenRefreshs *prometheus.CounterVec
}

// NewMetrics creates the executor counters and registers them with reg
// when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blizzapi",
			Name:      "requests_total",
			Help:      "Outbound API requests by outcome.",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blizzapi",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
		tokenRefreshs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blizzapi",
			Name:      "token_refreshes_total",
			Help:      "Access token refreshes by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.cacheLookups, m.tokenRefreshs)
	}
	return m
}

// Request outcomes
const (
	outcomeOK             = "ok"
	outcomeNotModified    = "not_modified"
	outcomeAPIError       = "api_error"
	outcomeTransportError = "transport_error"
)

// Cache lookup results
const (
	lookupHit   = "hit"
	lookupMiss  = "miss"
	lookupError = "error"
)

func (m *Metrics) request(outcome string) {
	if m != nil {
		m.requests.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) lookup(result string) {
	if m != nil {
		m.cacheLookups.WithLabelValues(result).Inc()
	}
}

// ObserveRefresh records a token refresh. It matches oauth.WithRefreshHook.
func (m *Metrics) ObserveRefresh(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.tokenRefreshs.WithLabelValues("failure").Inc()
		return
	}
	m.tokenRefreshs.WithLabelValues("success").Inc()
}
