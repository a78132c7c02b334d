package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joelkoen/picolimbo/pkg/protocol/ids"
	"github.com/joelkoen/picolimbo/pkg/protocol/packet"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

func newBareSession(t *testing.T) *Session {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return newSession(&Server{}, a, context.Background())
}

func TestStateTransitions(t *testing.T) {
	s := newBareSession(t)
	require.Equal(t, ids.StateHandshake, s.State())

	require.NoError(t, s.SetState(ids.StateLogin))
	require.NoError(t, s.SetState(ids.StateConfiguration))
	require.NoError(t, s.SetState(ids.StatePlay))

	// Play is terminal.
	err := s.SetState(ids.StateConfiguration)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStateTransitionRejectsIllegalEdge(t *testing.T) {
	s := newBareSession(t)

	require.NoError(t, s.SetState(ids.StateStatus))
	err := s.SetState(ids.StatePlay)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransferEntersConfiguration(t *testing.T) {
	s := newBareSession(t)

	require.NoError(t, s.SetState(ids.StateTransfer))
	require.NoError(t, s.SetState(ids.StateConfiguration))
}

func TestSetProtocolOnce(t *testing.T) {
	s := newBareSession(t)

	require.NoError(t, s.setProtocol(version.V1_21_4))
	require.Equal(t, version.V1_21_4, s.Protocol())

	err := s.setProtocol(version.V1_8)
	require.ErrorIs(t, err, ErrProtocolSet)
	require.Equal(t, version.V1_21_4, s.Protocol())
}

func TestSendAfterCloseFails(t *testing.T) {
	s := newBareSession(t)
	s.Close()

	err := s.Send(&packet.StatusRequest{})
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := newBareSession(t)
	s.Close()
	s.Close()
}

func TestTeleportIDsIncrease(t *testing.T) {
	s := newBareSession(t)
	first := s.nextTeleportID()
	second := s.nextTeleportID()
	require.Greater(t, second, first)
}
