package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	QueueSize          = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "mm_queue_size", Help: "players waiting, by mode"}, []string{"mode"})
	MatchesTotal       = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "mm_matches_total", Help: "total matches formed, by mode"}, []string{"mode"})
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "mm_notifications_total", Help: "waiting-player notifications sent, by kind"}, []string{"kind"})
	TransportFailures  = prometheus.NewCounter(prometheus.CounterOpts{Name: "mm_transport_failures_total", Help: "outbound messages that could not be delivered"})
	OracleFailures     = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "mm_oracle_failures_total", Help: "rating store calls that failed, by operation"}, []string{"op"})
)

func Init() {
	prometheus.MustRegister(QueueSize, MatchesTotal, NotificationsTotal, TransportFailures, OracleFailures)
}
