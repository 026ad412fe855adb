package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/RussTedrake/lerobot/internal/record"
)

const (
	// clientQueueSize bounds the per-client live-record buffer. A client
	// this far behind gets dropped rather than stalling the stream.
	clientQueueSize = 1024

	writeTimeout = 10 * time.Second
)

// Config holds the server's construction parameters.
type Config struct {
	// App is the session name sent in the hello frame.
	App string

	// WebPort and WSPort are the two listen ports. Zero binds an
	// ephemeral port; Addr methods report what was actually bound.
	WebPort int
	WSPort  int

	// QueueSize overrides the per-client buffer depth. Zero keeps the
	// default.
	QueueSize int

	Logger *slog.Logger
}

// Server broadcasts session records to websocket clients and answers
// status queries over plain HTTP. It implements record.Sink.
type Server struct {
	app       string
	webPort   int
	wsPort    int
	queueSize int
	logger    *slog.Logger

	webServer *http.Server
	wsServer  *http.Server
	webLn     net.Listener
	wsLn      net.Listener
	upgrader  websocket.Upgrader
	started   time.Time

	mu      sync.Mutex
	backlog []record.Record
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn  *websocket.Conn
	queue chan record.Record
	done  chan struct{}
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = clientQueueSize
	}
	return &Server{
		app:       cfg.App,
		webPort:   cfg.WebPort,
		wsPort:    cfg.WSPort,
		queueSize: queueSize,
		logger:    logger,
		clients:   make(map[*client]struct{}),
	}
}

// Start binds both listeners and begins serving in the background. Port
// conflicts surface here, not later.
func (s *Server) Start() error {
	webLn, err := net.Listen("tcp", fmt.Sprintf(":%d", s.webPort))
	if err != nil {
		return fmt.Errorf("serve: web listener: %w", err)
	}
	wsLn, err := net.Listen("tcp", fmt.Sprintf(":%d", s.wsPort))
	if err != nil {
		webLn.Close()
		return fmt.Errorf("serve: websocket listener: %w", err)
	}
	s.webLn, s.wsLn = webLn, wsLn
	s.started = time.Now()

	webMux := http.NewServeMux()
	webMux.HandleFunc("/", s.handleIndex)
	webMux.HandleFunc("/status", s.handleStatus)
	s.webServer = &http.Server{Handler: webMux}

	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", s.handleWS)
	s.wsServer = &http.Server{Handler: wsMux}

	go s.serveOn(s.webServer, webLn, "web")
	go s.serveOn(s.wsServer, wsLn, "websocket")

	s.logger.Info("serving session",
		"app", s.app,
		"web", webLn.Addr().String(),
		"websocket", wsLn.Addr().String())
	return nil
}

func (s *Server) serveOn(srv *http.Server, ln net.Listener, name string) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("listener stopped", "listener", name, "error", err)
	}
}

// WebAddr is the bound web address, valid after Start.
func (s *Server) WebAddr() string { return s.webLn.Addr().String() }

// WSAddr is the bound websocket address, valid after Start.
func (s *Server) WSAddr() string { return s.wsLn.Addr().String() }

// Emit appends the record to the backlog and hands it to every
// connected client. A client whose queue is full is dropped so the
// emitting goroutine never blocks.
func (s *Server) Emit(rec record.Record) {
	s.mu.Lock()
	s.backlog = append(s.backlog, rec)
	for c := range s.clients {
		select {
		case c.queue <- rec:
		default:
			delete(s.clients, c)
			close(c.done)
			s.logger.Warn("dropping slow client", "remote", c.conn.RemoteAddr().String())
		}
	}
	s.mu.Unlock()
}

// ClientCount reports the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// BacklogLen reports the number of records buffered for new clients.
func (s *Server) BacklogLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.backlog)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{
		conn:  conn,
		queue: make(chan record.Record, s.queueSize),
		done:  make(chan struct{}),
	}

	// Register under the same lock that snapshots the backlog so the
	// client sees every record exactly once: the snapshot first, then
	// whatever lands in the queue afterwards.
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	backlog := make([]record.Record, len(s.backlog))
	copy(backlog, s.backlog)
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("client connected",
		"remote", conn.RemoteAddr().String(),
		"backlog", len(backlog))

	go s.readLoop(c)
	go s.writeLoop(c, backlog)
}

// readLoop consumes client messages so close and ping frames are
// processed; payloads are ignored, the stream is one-way.
func (s *Server) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.drop(c)
			return
		}
	}
}

func (s *Server) writeLoop(c *client, backlog []record.Record) {
	defer c.conn.Close()

	if err := s.writeFrame(c.conn, helloFrame{App: s.app, Backlog: len(backlog)}); err != nil {
		s.drop(c)
		return
	}
	for _, rec := range backlog {
		if err := s.writeFrame(c.conn, rec); err != nil {
			s.drop(c)
			return
		}
	}
	for {
		select {
		case rec := <-c.queue:
			if err := s.writeFrame(c.conn, rec); err != nil {
				s.drop(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, v any) error {
	data, err := record.Marshal(v)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.done)
	}
	s.mu.Unlock()
	c.conn.Close()
}

// Shutdown disconnects all clients and stops both listeners, waiting
// for in-flight HTTP requests up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.dropAll()

	var firstErr error
	if s.wsServer != nil {
		if err := s.wsServer.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if s.webServer != nil {
		if err := s.webServer.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close stops the server immediately.
func (s *Server) Close() error {
	s.dropAll()

	var firstErr error
	if s.wsServer != nil {
		firstErr = s.wsServer.Close()
	}
	if s.webServer != nil {
		if err := s.webServer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Server) dropAll() {
	s.mu.Lock()
	s.closed = true
	for c := range s.clients {
		delete(s.clients, c)
		close(c.done)
	}
	s.mu.Unlock()
}
