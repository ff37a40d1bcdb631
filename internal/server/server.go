package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avastatus/internal/config"
	"github.com/vyrodovalexey/avastatus/internal/health"
	"github.com/vyrodovalexey/avastatus/internal/middleware"
	"github.com/vyrodovalexey/avastatus/internal/observability"
)

// Listener limits that are not configurable.
const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 120 * time.Second
	maxHeaderBytes    = 1 << 20
)

// ginModeOnce ensures gin.SetMode is only called once.
var ginModeOnce sync.Once

// State represents the server state.
type State int32

const (
	// StateStopped indicates the server is stopped.
	StateStopped State = iota
	// StateStarting indicates the server is starting.
	StateStarting
	// StateRunning indicates the server is serving requests.
	StateRunning
	// StateStopping indicates the server is draining.
	StateStopping
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Server serves the health endpoints.
type Server struct {
	config           config.ListenerConfig
	health           *health.Handler
	logger           observability.Logger
	engine           *gin.Engine
	handler          http.Handler
	middleware       []Middleware
	statusMiddleware []gin.HandlerFunc
	metricsPath      string
	metricsHandler   http.Handler

	server    *http.Server
	addr      net.Addr
	serveDone chan struct{}
	state     atomic.Int32
	startTime time.Time
	mu        sync.RWMutex

	shutdownTimeout time.Duration
}

// Option is a functional option for configuring the server.
type Option func(*Server)

// WithLogger sets the logger for the server.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithShutdownTimeout sets the shutdown timeout used when Stop is called
// without a deadline.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.shutdownTimeout = timeout
		}
	}
}

// WithMiddleware sets the net/http middleware wrapped around the engine.
// The first middleware is the outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(s *Server) {
		s.middleware = append(s.middleware, mw...)
	}
}

// WithStatusMiddleware sets gin handlers that guard the status route.
func WithStatusMiddleware(handlers ...gin.HandlerFunc) Option {
	return func(s *Server) {
		s.statusMiddleware = append(s.statusMiddleware, handlers...)
	}
}

// WithMetricsHandler serves handler at path.
func WithMetricsHandler(path string, handler http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metricsHandler = handler
	}
}

// New creates a server for the given health handler. Routes are built
// immediately so Handler can be used before Start.
func New(cfg config.ListenerConfig, h *health.Handler, opts ...Option) *Server {
	s := &Server{
		config:          cfg,
		health:          h,
		logger:          observability.NopLogger(),
		shutdownTimeout: config.DefaultShutdownTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.config.Address == "" {
		s.config.Address = config.DefaultListenAddress
	}

	s.engine = s.buildEngine()
	s.handler = s.wrap(s.engine)
	s.state.Store(int32(StateStopped))

	return s
}

// buildEngine sets up the gin routes.
func (s *Server) buildEngine() *gin.Engine {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	s.health.RegisterRoutes(engine, s.statusMiddleware...)

	if s.metricsHandler != nil && s.metricsPath != "" {
		engine.GET(s.metricsPath, gin.WrapH(s.metricsHandler))
	}

	engine.NoRoute(func(c *gin.Context) {
		middleware.WriteOutcome(c.Writer, http.StatusNotFound,
			"No route for "+c.Request.URL.Path)
		c.Abort()
	})
	engine.NoMethod(func(c *gin.Context) {
		middleware.WriteOutcome(c.Writer, http.StatusMethodNotAllowed,
			"Method "+c.Request.Method+" not allowed for "+c.Request.URL.Path)
		c.Abort()
	})

	return engine
}

// wrap applies the middleware so that the first one executes first.
func (s *Server) wrap(h http.Handler) http.Handler {
	for i := len(s.middleware) - 1; i >= 0; i-- {
		h = s.middleware[i](h)
	}
	return h
}

// Start starts listening and serving in the background.
func (s *Server) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return fmt.Errorf("server is not in stopped state")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.config.Address)
	if err != nil {
		s.state.Store(int32(StateStopped))
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout.Duration(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      s.config.WriteTimeout.Duration(),
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}
	done := make(chan struct{})

	s.mu.Lock()
	s.server = srv
	s.addr = ln.Addr()
	s.serveDone = done
	s.startTime = time.Now()
	s.mu.Unlock()

	go s.serve(srv, ln, done)

	s.state.Store(int32(StateRunning))
	s.health.SetReady(true)

	s.logger.Info("server started",
		observability.String("address", ln.Addr().String()),
	)

	return nil
}

func (s *Server) serve(srv *http.Server, ln net.Listener, done chan struct{}) {
	defer close(done)

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("server error", observability.Error(err))
		s.health.SetReady(false)
	}
}

// Stop stops the server gracefully. Readiness is withdrawn before
// in-flight requests are drained.
func (s *Server) Stop(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return fmt.Errorf("server is not running")
	}

	s.health.SetReady(false)
	s.logger.Info("stopping server")

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}

	s.mu.RLock()
	srv, done := s.server, s.serveDone
	s.mu.RUnlock()

	var stopErr error
	if err := srv.Shutdown(ctx); err != nil {
		stopErr = fmt.Errorf("failed to shutdown server gracefully: %w", err)
		if closeErr := srv.Close(); closeErr != nil {
			stopErr = fmt.Errorf("failed to close server: %w", closeErr)
		}
	}
	<-done

	s.state.Store(int32(StateStopped))

	s.logger.Info("server stopped",
		observability.Duration("uptime", s.Uptime()),
	)

	return stopErr
}

// State returns the current server state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Uptime returns the time since the last successful Start.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// Addr returns the bound address, or nil before the first Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}
