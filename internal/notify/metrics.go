package notify

import "github.com/prometheus/client_golang/prometheus"

var (
	// notificationsTotal counts finished dispatches by terminal state and
	// failure reason ("" for delivered).
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_notifications_total",
			Help: "Notifications dispatched to the provider, by outcome.",
		},
		[]string{"state", "reason"},
	)

	// notificationsInflight gauges sends currently waiting on the provider.
	notificationsInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_notifications_inflight",
			Help: "Notifications currently being sent.",
		},
	)
)

func init() {
	prometheus.MustRegister(notificationsTotal, notificationsInflight)
}
