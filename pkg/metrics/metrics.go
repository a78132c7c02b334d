// Package metrics provides optional Prometheus instrumentation for the
// server. All collector methods are nil-safe: when metrics are disabled
// callers hold a nil *Collectors and recording is a no-op.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors holds every Prometheus collector the server records into.
type Collectors struct {
	registry *prometheus.Registry

	connectionsAccepted prometheus.Counter
	sessionsActive      prometheus.Gauge
	sessionsByState     *prometheus.GaugeVec
	packets             *prometheus.CounterVec
	packetBytes         *prometheus.CounterVec
	loginFailures       *prometheus.CounterVec
	keepAliveTimeouts   prometheus.Counter
	statusRequests      prometheus.Counter
	loginDuration       prometheus.Histogram
}

// NewCollectors creates a registry with all server collectors plus the
// standard Go and process collectors.
func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collectors{
		registry: reg,
		connectionsAccepted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "picolimbo_connections_accepted_total",
			Help: "Total number of accepted TCP connections",
		}),
		sessionsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "picolimbo_sessions_active",
			Help: "Current number of live sessions",
		}),
		sessionsByState: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "picolimbo_sessions_by_state",
				Help: "Current number of sessions per connection state",
			},
			[]string{"state"}, // "handshake", "status", "login", "configuration", "play"
		),
		packets: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "picolimbo_packets_total",
				Help: "Total number of packets by direction",
			},
			[]string{"direction"}, // "in", "out"
		),
		packetBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "picolimbo_packet_bytes_total",
				Help: "Total packet payload bytes by direction",
			},
			[]string{"direction"}, // "in", "out"
		),
		loginFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "picolimbo_login_failures_total",
				Help: "Total number of failed logins by reason",
			},
			[]string{"reason"}, // "forwarding", "protocol", "capacity"
		),
		keepAliveTimeouts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "picolimbo_keepalive_timeouts_total",
			Help: "Total number of sessions dropped for unanswered keep-alives",
		}),
		statusRequests: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "picolimbo_status_requests_total",
			Help: "Total number of server-list status requests served",
		}),
		loginDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "picolimbo_login_duration_seconds",
			Help:    "Time from connection accept to entering play",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Registry returns the underlying Prometheus registry for HTTP exposure.
func (c *Collectors) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordConnectionAccepted increments the accepted connection counter.
func (c *Collectors) RecordConnectionAccepted() {
	if c == nil {
		return
	}
	c.connectionsAccepted.Inc()
}

// SetActiveSessions updates the live session gauge.
func (c *Collectors) SetActiveSessions(count int) {
	if c == nil {
		return
	}
	c.sessionsActive.Set(float64(count))
}

// RecordStateEnter moves a session between state gauges. Pass an empty
// previous state for a fresh connection.
func (c *Collectors) RecordStateEnter(prev, next string) {
	if c == nil {
		return
	}
	if prev != "" {
		c.sessionsByState.WithLabelValues(prev).Dec()
	}
	if next != "" {
		c.sessionsByState.WithLabelValues(next).Inc()
	}
}

// RecordPacketIn records a received packet and its payload size.
func (c *Collectors) RecordPacketIn(bytes int) {
	if c == nil {
		return
	}
	c.packets.WithLabelValues("in").Inc()
	c.packetBytes.WithLabelValues("in").Add(float64(bytes))
}

// RecordPacketOut records a sent packet and its payload size.
func (c *Collectors) RecordPacketOut(bytes int) {
	if c == nil {
		return
	}
	c.packets.WithLabelValues("out").Inc()
	c.packetBytes.WithLabelValues("out").Add(float64(bytes))
}

// RecordLoginFailure records a failed login attempt.
func (c *Collectors) RecordLoginFailure(reason string) {
	if c == nil {
		return
	}
	c.loginFailures.WithLabelValues(reason).Inc()
}

// RecordKeepAliveTimeout records a session dropped for not answering
// keep-alives.
func (c *Collectors) RecordKeepAliveTimeout() {
	if c == nil {
		return
	}
	c.keepAliveTimeouts.Inc()
}

// RecordStatusRequest records a served server-list status request.
func (c *Collectors) RecordStatusRequest() {
	if c == nil {
		return
	}
	c.statusRequests.Inc()
}

// ObserveLoginDuration records how long a login took end to end.
func (c *Collectors) ObserveLoginDuration(seconds float64) {
	if c == nil {
		return
	}
	c.loginDuration.Observe(seconds)
}
