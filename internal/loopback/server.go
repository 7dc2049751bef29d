package loopback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"colabauth/pkg/logging"
)

const subsystem = "LoopbackServer"

// Host is the only interface the server binds to.
const Host = "127.0.0.1"

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

var (
	// ErrAlreadyStarted is returned by Start when the server is listening.
	ErrAlreadyStarted = errors.New("loopback server already started")

	// ErrClosed is returned by Start once the server has been closed.
	ErrClosed = errors.New("loopback server closed")
)

// State is the lifecycle state of a Server.
type State int

const (
	// StateIdle means the server has not been started.
	StateIdle State = iota

	// StateListening means the server is bound and serving requests.
	StateListening

	// StateClosed means the server has been torn down. It is terminal.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Server is an ephemeral HTTP listener on the loopback interface.
// It moves Idle -> Listening -> Closed and is never restarted.
type Server struct {
	mu       sync.Mutex
	state    State
	handler  http.Handler
	onError  func(error)
	server   *http.Server
	listener net.Listener
	port     int
	stop     func() bool
	done     chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithErrorHandler registers fn to be called if serving fails for any
// reason other than the server being closed.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Server) {
		s.onError = fn
	}
}

// NewServer creates an idle server that dispatches requests to handler.
func NewServer(handler http.Handler, opts ...Option) *Server {
	s := &Server{
		state:   StateIdle,
		handler: handler,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds an ephemeral port on the loopback interface and begins
// serving. The server is closed automatically when ctx is cancelled.
// Returns the bound port.
func (s *Server) Start(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateListening:
		return 0, ErrAlreadyStarted
	case StateClosed:
		return 0, ErrClosed
	}

	addr := net.JoinHostPort(Host, "0")
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("failed to start loopback server on %s: %w", addr, err)
	}

	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.state = StateListening

	go s.serve(s.server, listener)

	// Tear down early if the caller gives up.
	s.stop = context.AfterFunc(ctx, func() {
		_ = s.Close()
	})

	logging.Debug(subsystem, "Listening on %s", listener.Addr())
	return s.port, nil
}

func (s *Server) serve(server *http.Server, listener net.Listener) {
	defer close(s.done)

	err := server.Serve(listener)
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return
	}

	logging.Error(subsystem, err, "Loopback server stopped unexpectedly")
	if s.onError != nil {
		s.onError(err)
	}
}

// Close shuts the server down, waiting briefly for in-flight requests.
// It is safe to call in any state and more than once.
func (s *Server) Close() error {
	s.mu.Lock()
	prev := s.state
	s.state = StateClosed
	server, stop := s.server, s.stop
	s.mu.Unlock()

	switch prev {
	case StateClosed:
		return nil
	case StateIdle:
		close(s.done)
		return nil
	}

	if stop != nil {
		stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.Debug(subsystem, "Graceful shutdown failed, forcing close: %v", err)
		return server.Close()
	}

	logging.Debug(subsystem, "Closed listener on port %d", s.port)
	return nil
}

// Done is closed once the server has stopped serving.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Port returns the bound port, or 0 if the server was never started.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// URL returns the base URL of the server, "http://127.0.0.1:<port>".
func (s *Server) URL() string {
	return "http://" + net.JoinHostPort(Host, strconv.Itoa(s.Port()))
}
