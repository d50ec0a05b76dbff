package transport

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"embermoo/internal/config"
	"embermoo/internal/engine"
	"embermoo/internal/session"
)

// Server accepts connections and runs one session goroutine per connection
// (§5: "the acceptor runs parallel threads, one per connection").
type Server struct {
	cfg      config.Server
	world    *engine.World
	log      *zap.SugaredLogger
	listener net.Listener
	closed   chan struct{}

	opHandler *operatorHandler
}

// New builds a server bound to world, not yet listening.
func New(cfg config.Server, world *engine.World, log *zap.SugaredLogger) *Server {
	return &Server{
		cfg:       cfg,
		world:     world,
		log:       log,
		closed:    make(chan struct{}),
		opHandler: &operatorHandler{cfg: cfg, world: world, log: log},
	}
}

// ListenAndServe binds the configured address/port and accepts connections
// until the listener is closed (§5: cooperative shutdown via listener
// close). Backoff on transient Accept errors matches the teacher's
// acceptConnections loop.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.ListenAddress, s.cfg.ListenPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.log.Infow("listening", "addr", addr)

	backoff := 5 * time.Millisecond
	for {
		raw, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			s.log.Warnw("accept failed", "error", err, "backoff", backoff)
			time.Sleep(backoff)
			if backoff < time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = 5 * time.Millisecond
		go s.handle(raw)
	}
}

func (s *Server) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Shutdown closes the listener; in-flight Accept calls return an error and
// the loop above exits (§5's shutdown sequence continues in cmd/server,
// which performs a final dump and exits; active sessions are not closed
// one by one).
func (s *Server) Shutdown() error {
	close(s.closed)
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) handle(raw net.Conn) {
	conn := NewConn(raw)
	defer conn.Close()

	sess := session.New(s.world, func(text string) { conn.WriteLine(text) }, raw.RemoteAddr().String(), s.cfg.Debug, s.log)
	s.log.Infow("connection accepted", "peer", sess.Name)

	s.sendMOTD(conn)
	conn.WriteLine("> ")

	for {
		line, err := conn.ReadLine()
		if err != nil {
			break
		}
		if strings.HasPrefix(line, s.cfg.OpCommandPrefix) && s.cfg.OpCommandPrefix != "" {
			s.opHandler.handle(sess, conn, strings.TrimPrefix(line, s.cfg.OpCommandPrefix))
			continue
		}
		sess.HandleLine(line)
	}

	sess.OnDisconnect()
	s.log.Infow("connection closed", "peer", sess.Name)
}

func (s *Server) sendMOTD(conn *Conn) {
	if s.cfg.MOTDFile == "" {
		conn.WriteLine("Welcome.")
		return
	}
	data, err := os.ReadFile(s.cfg.MOTDFile)
	if err != nil {
		conn.WriteLine("Welcome.")
		return
	}
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		conn.WriteLine(line)
	}
}
