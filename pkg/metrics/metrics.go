package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Handshakes by outcome: success, not_found, conflict, error
	Handshakes *prometheus.CounterVec

	// Polls by outcome: success, auth_error, not_found, error
	Polls *prometheus.CounterVec

	PollDuration prometheus.Histogram

	// IPChanges counts polls that observed a new source address.
	IPChanges prometheus.Counter

	// GeoLookups by result: ok, cached, local, private, rejected, degraded
	GeoLookups *prometheus.CounterVec

	// GeoDNSDecisions by kind: direct, fallback, none
	GeoDNSDecisions *prometheus.CounterVec

	AgentsMarkedInactive prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// detached registry when the caller does not export metrics
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		Handshakes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "edge_agent_handshakes_total",
			Help: "Connection token redemptions by outcome.",
		}, []string{"outcome"}),

		Polls: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "edge_agent_polls_total",
			Help: "Agent configuration polls by outcome.",
		}, []string{"outcome"}),

		PollDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "edge_agent_poll_duration_seconds",
			Help:    "Time spent serving an agent poll.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),

		IPChanges: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "edge_agent_ip_changes_total",
			Help: "Polls that observed a changed agent source address.",
		}),

		GeoLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "edge_geoip_lookups_total",
			Help: "IP geolocation lookups by result.",
		}, []string{"result"}),

		GeoDNSDecisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "edge_geodns_decisions_total",
			Help: "GeoDNS location resolutions by kind.",
		}, []string{"kind"}),

		AgentsMarkedInactive: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "edge_agents_marked_inactive_total",
			Help: "Agents downgraded by the liveness sweep.",
		}),
	}
}
