// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlinePlayers    prometheus.Gauge
	QueuedPlayers    prometheus.Gauge
	ActiveDuels      prometheus.Gauge
	MessagesReceived prometheus.Counter
	DuelsCompleted   *prometheus.CounterVec
	RoundLatency     prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of connected players",
		}),
		QueuedPlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queued_players",
			Help:      "Number of players waiting for an opponent",
		}),
		ActiveDuels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_duels",
			Help:      "Number of live duel rooms",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of messages received",
		}),
		DuelsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duels_completed_total",
			Help:      "Completed duels by outcome",
		}, []string{"outcome"}),
		RoundLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_settle_latency_seconds",
			Help:      "Round settlement processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	prometheus.MustRegister(
		m.OnlinePlayers,
		m.QueuedPlayers,
		m.ActiveDuels,
		m.MessagesReceived,
		m.DuelsCompleted,
		m.RoundLatency,
	)

	return m
}

type Monitor struct {
	metrics      *Metrics
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	// 添加expvar指标
	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("requests", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.requestCount
	}))

	go http.ListenAndServe(addr, nil)
}

func (m *Monitor) IncOnlinePlayers() {
	m.metrics.OnlinePlayers.Inc()
}

func (m *Monitor) DecOnlinePlayers() {
	m.metrics.OnlinePlayers.Dec()
}

func (m *Monitor) SetQueuedPlayers(count int) {
	m.metrics.QueuedPlayers.Set(float64(count))
}

func (m *Monitor) SetActiveDuels(count int) {
	m.metrics.ActiveDuels.Set(float64(count))
}

func (m *Monitor) IncMessagesReceived() {
	m.metrics.MessagesReceived.Inc()
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

// IncDuelsCompleted outcome 取值 win/draw/forfeit
func (m *Monitor) IncDuelsCompleted(outcome string) {
	m.metrics.DuelsCompleted.WithLabelValues(outcome).Inc()
}

func (m *Monitor) ObserveRoundLatency(duration time.Duration) {
	m.metrics.RoundLatency.Observe(duration.Seconds())
}
