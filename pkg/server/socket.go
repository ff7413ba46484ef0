package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/cuemby/mumpsdb/pkg/authz"
	"github.com/cuemby/mumpsdb/pkg/executor"
	"github.com/cuemby/mumpsdb/pkg/log"
	"github.com/cuemby/mumpsdb/pkg/metrics"
	"github.com/google/uuid"
)

// SocketServer listens for TCP connections and drives one runSession per
// connection on its own goroutine; shutdown stops accepting new
// connections, then waits for in-flight sessions to finish their current
// command and close.
type SocketServer struct {
	Executor *executor.Executor

	listener net.Listener
	wg       sync.WaitGroup
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
}

func NewSocketServer(exec *executor.Executor) *SocketServer {
	return &SocketServer{Executor: exec, conns: make(map[net.Conn]struct{})}
}

// Start binds to the given port and serves connections until ctx is
// cancelled. It returns once the listener is closed and every in-flight
// session has exited.
func (s *SocketServer) Start(ctx context.Context, port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}
	s.listener = lis
	log.WithComponent("server").Info().Int("port", port).Msg("socket listener started")

	go func() {
		<-ctx.Done()
		s.listener.Close()
		s.mu.Lock()
		for c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				return fmt.Errorf("accept connection: %w", err)
			}
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		metrics.ActiveSessions.Inc()

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer metrics.ActiveSessions.Dec()
			defer func() {
				s.mu.Lock()
				delete(s.conns, c)
				s.mu.Unlock()
				c.Close()
			}()
			sessionID := uuid.NewString()
			info := authz.SessionInfo{RemoteAddr: c.RemoteAddr().String(), SessionID: sessionID}
			runSession(s.Executor, info, c, c)
		}(conn)
	}
}
