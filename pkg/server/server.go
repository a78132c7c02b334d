// Package server owns the TCP lifecycle of the limbo: the accept loop,
// per-connection sessions, the state machine dispatcher, and graceful
// shutdown. Everything a session reads after startup (packet-id table,
// block registry, parsed schematic, registry payloads) is immutable and
// shared without locking.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joelkoen/picolimbo/internal/logger"
	"github.com/joelkoen/picolimbo/pkg/assets"
	"github.com/joelkoen/picolimbo/pkg/config"
	"github.com/joelkoen/picolimbo/pkg/forwarding"
	"github.com/joelkoen/picolimbo/pkg/metrics"
	"github.com/joelkoen/picolimbo/pkg/protocol/ids"
	"github.com/joelkoen/picolimbo/pkg/world"
	"github.com/joelkoen/picolimbo/pkg/world/blocks"
	"github.com/joelkoen/picolimbo/pkg/world/schematic"
)

// drainTimeout is how long graceful shutdown waits for sessions to
// flush their disconnect before force-closing sockets.
const drainTimeout = 5 * time.Second

// plainsBiome is the report id the emitter fills biome palettes with.
const plainsBiome int32 = 1

// ErrBind wraps listener creation failures so the CLI can map them to
// the bind-failure exit code.
var ErrBind = errors.New("bind failure")

// Server is the acceptor plus the shared read-only state every session
// dispatches against.
type Server struct {
	cfg        *config.Config
	table      *ids.Table
	emitter    *world.Emitter
	registries *registrySet
	velocity   *forwarding.Velocity
	bungee     *forwarding.BungeeCord
	metrics    *metrics.Collectors
	favicon    string

	dispatchTable map[ids.State]map[string]handler

	queryID      atomic.Int32
	sessionCount atomic.Int32

	listener     net.Listener
	listenerMu   sync.RWMutex
	shutdown     chan struct{}
	shutdownOnce sync.Once
	sessions     sync.Map // remote addr -> *Session
	active       sync.WaitGroup
	semaphore    chan struct{}
	accepting    atomic.Bool

	// ListenerReady is closed once the listener accepts connections;
	// tests synchronize on it.
	ListenerReady chan struct{}
}

// New loads every startup asset and assembles the server. Errors here
// are asset or configuration failures and fatal to the process.
func New(cfg *config.Config, store *assets.Store, collectors *metrics.Collectors) (*Server, error) {
	table, err := ids.LoadTable(store.Root())
	if err != nil {
		return nil, err
	}

	blockReg, err := blocks.Load(store)
	if err != nil {
		return nil, err
	}

	dim, err := world.ParseDimension(cfg.SpawnDimension)
	if err != nil {
		return nil, err
	}

	var schem *schematic.Schematic
	if cfg.World.SchematicFile != "" {
		data, err := store.Schematic(cfg.World.SchematicFile)
		if err != nil {
			return nil, err
		}
		schem, err = schematic.Parse(data, blockReg)
		if err != nil {
			return nil, fmt.Errorf("schematic %s: %w", cfg.World.SchematicFile, err)
		}
	}

	regs, err := loadRegistries(store)
	if err != nil {
		return nil, err
	}

	favicon, err := loadFavicon(cfg.Status.ServerIcon)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg: cfg,
		table: table,
		emitter: &world.Emitter{
			Blocks:    blockReg,
			Schematic: schem,
			Dimension: dim,
			Biome:     plainsBiome,
		},
		registries:    regs,
		metrics:       collectors,
		favicon:       favicon,
		shutdown:      make(chan struct{}),
		ListenerReady: make(chan struct{}),
	}
	if cfg.Forwarding.Velocity.Enabled {
		srv.velocity = forwarding.NewVelocity(cfg.Forwarding.Velocity.Secret)
	}
	if cfg.Forwarding.BungeeCord.Enabled {
		var tokens []string
		if cfg.Forwarding.BungeeCord.BungeeGuard {
			tokens = cfg.Forwarding.BungeeCord.Tokens
		}
		srv.bungee = forwarding.NewBungeeCord(tokens)
	}
	if cfg.MaxConnections > 0 {
		srv.semaphore = make(chan struct{}, cfg.MaxConnections)
	}
	srv.dispatchTable = srv.handlers()
	return srv, nil
}

// Ready reports whether the listener is accepting connections.
func (srv *Server) Ready() bool {
	return srv.accepting.Load()
}

// nextQueryID hands out login plugin message ids.
func (srv *Server) nextQueryID() int32 {
	return srv.queryID.Add(1)
}

// Serve binds the configured address and runs the accept loop until the
// context is cancelled. A bind failure is returned immediately.
func (srv *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", srv.cfg.Address)
	if err != nil {
		return fmt.Errorf("%w on %s: %w", ErrBind, srv.cfg.Address, err)
	}
	srv.listenerMu.Lock()
	srv.listener = listener
	srv.listenerMu.Unlock()
	srv.accepting.Store(true)
	close(srv.ListenerReady)

	logger.Info("server listening", logger.KeyAddress, srv.cfg.Address)

	go func() {
		<-ctx.Done()
		srv.initiateShutdown()
	}()

	for {
		if srv.semaphore != nil {
			select {
			case srv.semaphore <- struct{}{}:
			case <-srv.shutdown:
				return srv.gracefulShutdown()
			}
		}

		conn, err := listener.Accept()
		if err != nil {
			if srv.semaphore != nil {
				<-srv.semaphore
			}
			select {
			case <-srv.shutdown:
				return srv.gracefulShutdown()
			default:
				logger.Debug("accept failed", logger.KeyError, err.Error())
				continue
			}
		}

		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
		}

		srv.metrics.RecordConnectionAccepted()
		srv.active.Add(1)
		count := srv.sessionCount.Add(1)
		srv.metrics.SetActiveSessions(int(count))
		srv.metrics.RecordStateEnter("", ids.StateHandshake.String())

		sess := newSession(srv, conn, ctx)
		addr := conn.RemoteAddr().String()
		srv.sessions.Store(addr, sess)

		logger.Debug("connection accepted",
			logger.KeyRemoteAddr, addr,
			logger.KeySessions, count,
		)

		go func() {
			defer func() {
				srv.sessions.Delete(addr)
				srv.active.Done()
				remaining := srv.sessionCount.Add(-1)
				srv.metrics.SetActiveSessions(int(remaining))
				if srv.semaphore != nil {
					<-srv.semaphore
				}
			}()
			sess.serve()
		}()
	}
}

// initiateShutdown stops the accept loop and nudges every session to
// finish. Safe to call multiple times.
func (srv *Server) initiateShutdown() {
	srv.shutdownOnce.Do(func() {
		logger.Info("shutdown initiated")
		srv.accepting.Store(false)
		close(srv.shutdown)

		srv.listenerMu.Lock()
		if srv.listener != nil {
			_ = srv.listener.Close()
		}
		srv.listenerMu.Unlock()

		// Broadcast a state-appropriate disconnect; each session's
		// writer flushes it before the socket closes.
		srv.sessions.Range(func(_, value any) bool {
			sess := value.(*Session)
			go sess.Disconnect("Server is shutting down")
			return true
		})

		// Unblock sessions parked in a read.
		deadline := time.Now().Add(100 * time.Millisecond)
		srv.sessions.Range(func(_, value any) bool {
			_ = value.(*Session).conn.SetReadDeadline(deadline)
			return true
		})
	})
}

// gracefulShutdown waits for sessions to drain, force-closing whatever
// is left after the timeout.
func (srv *Server) gracefulShutdown() error {
	remaining := srv.sessionCount.Load()
	logger.Info("waiting for sessions to drain",
		logger.KeySessions, remaining,
	)

	done := make(chan struct{})
	go func() {
		srv.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
		return nil
	case <-time.After(drainTimeout):
		forced := 0
		srv.sessions.Range(func(_, value any) bool {
			value.(*Session).conn.Close()
			forced++
			return true
		})
		logger.Warn("drain timeout, sessions force-closed",
			logger.KeySessions, forced,
		)
		return errors.New("shutdown drain timeout")
	}
}
