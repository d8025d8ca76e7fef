package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FactoryTemperature is the last reported temperature per factory.
	FactoryTemperature = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "factoryfeed_factory_temperature_celsius",
		Help: "Last reported temperature per factory",
	}, []string{"factory_id"})

	// FactoryPressure is the last reported pressure per factory.
	FactoryPressure = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "factoryfeed_factory_pressure_bar",
		Help: "Last reported pressure per factory",
	}, []string{"factory_id"})

	// FactoryRPM is the last reported spindle speed per factory.
	FactoryRPM = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "factoryfeed_factory_rpm",
		Help: "Last reported RPM per factory",
	}, []string{"factory_id"})

	// FactoryStatusChanges counts status updates by resulting status.
	FactoryStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factoryfeed_factory_status_updates_total",
		Help: "Factory status updates by resulting status",
	}, []string{"status"})

	// FactoryAlerts counts emergency alert posts by alert type.
	FactoryAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factoryfeed_factory_alerts_total",
		Help: "Emergency alert posts published by alert type",
	}, []string{"alert_type"})

	// MonitorCycles counts monitor passes by outcome.
	MonitorCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factoryfeed_monitor_cycles_total",
		Help: "Factory monitor passes by outcome",
	}, []string{"outcome"})

	// PostsCreated counts created posts by kind (post, repost, system).
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factoryfeed_posts_created_total",
		Help: "Posts created by kind",
	}, []string{"kind"})

	// WebSocketConnections is the number of connected feed clients.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "factoryfeed_websocket_connections",
		Help: "Number of active feed WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped for slow clients.
	WebSocketBackpressureDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "factoryfeed_websocket_backpressure_drops_total",
		Help: "Messages dropped because a client send buffer was full",
	})
)

// RecordReading updates the per-factory gauges and the status counter.
func RecordReading(factoryID, status string, temp, pressure, rpm float64) {
	FactoryTemperature.WithLabelValues(factoryID).Set(temp)
	FactoryPressure.WithLabelValues(factoryID).Set(pressure)
	FactoryRPM.WithLabelValues(factoryID).Set(rpm)
	FactoryStatusChanges.WithLabelValues(status).Inc()
}
