package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Metrics holds the service counters exposed on /metrics.
type Metrics struct {
	upstreamRequests *prometheus.CounterVec
	webhookCallbacks *prometheus.CounterVec
	notifications    *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		upstreamRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskproxy_upstream_requests_total",
			Help: "Upstream provider calls by endpoint and status class.",
		}, []string{"endpoint", "status_class"}),
		webhookCallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskproxy_webhook_callbacks_total",
			Help: "Webhook callbacks by family and correlation outcome.",
		}, []string{"family", "outcome"}),
		notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskproxy_notifications_total",
			Help: "Notification dispatches by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) RecordUpstreamRequest(endpoint string, status int) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(endpoint, statusClass(status)).Inc()
}

func (m *Metrics) RecordWebhookCallback(family, outcome string) {
	if m == nil {
		return
	}
	m.webhookCallbacks.WithLabelValues(family, outcome).Inc()
}

func (m *Metrics) RecordNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

var Module = fx.Module("metrics",
	fx.Provide(New),
)
