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
	MessagesReceived prometheus.Counter
	Submissions      prometheus.Counter
	SendFailures     prometheus.Counter
	MatchesStarted   prometheus.Counter
	MatchesScored    prometheus.Counter
	ActiveMatches    prometheus.Gauge
	DispatchLatency  prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of inbound activities",
		}),
		Submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Total number of accepted choice submissions",
		}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Total number of failed outbound sends",
		}),
		MatchesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_started_total",
			Help:      "Total number of matches created",
		}),
		MatchesScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_scored_total",
			Help:      "Total number of matches scored",
		}),
		ActiveMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_matches",
			Help:      "Matches created but not yet scored",
		}),
		DispatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_latency_seconds",
			Help:      "Inbound activity processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	prometheus.MustRegister(
		m.MessagesReceived,
		m.Submissions,
		m.SendFailures,
		m.MatchesStarted,
		m.MatchesScored,
		m.ActiveMatches,
		m.DispatchLatency,
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
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("requests", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.requestCount
	}))
	mux.Handle("/debug/vars", expvar.Handler())

	go http.ListenAndServe(addr, mux)
}

func (m *Monitor) IncMessagesReceived() {
	m.metrics.MessagesReceived.Inc()
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

func (m *Monitor) IncSubmissions() {
	m.metrics.Submissions.Inc()
}

func (m *Monitor) IncSendFailures() {
	m.metrics.SendFailures.Inc()
}

func (m *Monitor) IncMatchesStarted() {
	m.metrics.MatchesStarted.Inc()
	m.metrics.ActiveMatches.Inc()
}

func (m *Monitor) IncMatchesScored() {
	m.metrics.MatchesScored.Inc()
	m.metrics.ActiveMatches.Dec()
}

func (m *Monitor) ObserveDispatchLatency(duration time.Duration) {
	m.metrics.DispatchLatency.Observe(duration.Seconds())
}
