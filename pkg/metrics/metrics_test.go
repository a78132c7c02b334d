package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCollectorsAreNoOps(t *testing.T) {
	var c *Collectors

	// None of these should panic.
	c.RecordConnectionAccepted()
	c.SetActiveSessions(3)
	c.RecordStateEnter("", "handshake")
	c.RecordPacketIn(10)
	c.RecordPacketOut(20)
	c.RecordLoginFailure("forwarding")
	c.RecordKeepAliveTimeout()
	c.RecordStatusRequest()
	c.ObserveLoginDuration(0.1)

	assert.Nil(t, c.Registry())
}

func TestCollectorsRecord(t *testing.T) {
	c := NewCollectors()

	c.RecordConnectionAccepted()
	c.RecordConnectionAccepted()
	assert.Equal(t, 2.0, testutil.ToFloat64(c.connectionsAccepted))

	c.SetActiveSessions(5)
	assert.Equal(t, 5.0, testutil.ToFloat64(c.sessionsActive))

	c.RecordStateEnter("", "handshake")
	c.RecordStateEnter("handshake", "login")
	assert.Equal(t, 0.0, testutil.ToFloat64(c.sessionsByState.WithLabelValues("handshake")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionsByState.WithLabelValues("login")))

	c.RecordPacketIn(100)
	c.RecordPacketOut(250)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.packets.WithLabelValues("in")))
	assert.Equal(t, 100.0, testutil.ToFloat64(c.packetBytes.WithLabelValues("in")))
	assert.Equal(t, 250.0, testutil.ToFloat64(c.packetBytes.WithLabelValues("out")))

	c.RecordLoginFailure("forwarding")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.loginFailures.WithLabelValues("forwarding")))
}

func TestMetricsEndpoint(t *testing.T) {
	c := NewCollectors()
	c.RecordConnectionAccepted()

	router := newRouter(c, nil)
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "picolimbo_connections_accepted_total")
}

func TestHealthEndpoints(t *testing.T) {
	ready := false
	router := newRouter(NewCollectors(), func() bool { return ready })
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 503, resp.StatusCode)

	ready = true
	resp, err = srv.Client().Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}
