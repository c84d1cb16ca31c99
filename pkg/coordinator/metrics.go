package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	users   prometheus.Gauge
	rooms   prometheus.Gauge
	joins   prometheus.Counter
	rejects prometheus.Counter
	relayed prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		users: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "podium", Name: "users_online",
			Help: "Number of connected users.",
		}),
		rooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "podium", Name: "rooms_active",
			Help: "Number of live debate rooms.",
		}),
		joins: f.NewCounter(prometheus.CounterOpts{
			Namespace: "podium", Name: "joins_total",
			Help: "Accepted join requests, reconnects included.",
		}),
		rejects: f.NewCounter(prometheus.CounterOpts{
			Namespace: "podium", Name: "join_rejects_total",
			Help: "Rejected join requests.",
		}),
		relayed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "podium", Name: "signals_relayed_total",
			Help: "Signaling payloads forwarded between occupants.",
		}),
	}
}
