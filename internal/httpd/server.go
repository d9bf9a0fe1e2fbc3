package httpd

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"weblet/internal/concurrent/taskpool"
	"weblet/internal/eventbus"
	logx "weblet/internal/logx"
	"weblet/internal/runtime/supervisor"
)

// Server answers HTTP/1.1 requests on a single listener, dispatching each
// accepted connection onto a worker pool. Matching is, in order: registered
// routes, then static files under the public directory, then the SPA
// fallback, then a synthesized or custom 404.
type Server struct {
	router     *Router
	static     *StaticServer
	errorPages *ErrorPages
	pool       *taskpool.Pool
	sup        *supervisor.Supervisor
	log        logx.Logger
	bus        eventbus.Bus
	env        map[string]string
	limiter    *rate.Limiter
	maxHeader  int

	listener net.Listener
	running  atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger attaches a logger used for request/connection diagnostics.
func WithLogger(log logx.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithPool uses an externally owned task pool to dispatch connections
// instead of creating one internally.
func WithPool(pool *taskpool.Pool) Option {
	return func(s *Server) { s.pool = pool }
}

// WithStatic serves files out of dir, with the given SPA fallback settings.
func WithStatic(dir string, spaFallback bool, spaIndex string) Option {
	return func(s *Server) { s.static = NewStaticServer(dir, spaFallback, spaIndex) }
}

// WithEnv attaches a configuration snapshot passed unchanged to every
// handler invocation.
func WithEnv(env map[string]string) Option {
	return func(s *Server) { s.env = env }
}

// WithEventBus publishes an "http.request.served" event after every
// request, carrying the path and status code.
func WithEventBus(bus eventbus.Bus) Option {
	return func(s *Server) { s.bus = bus }
}

// WithRateLimit caps the rate of accepted connections to ratePerSec with
// burst headroom of burst. Connections beyond the limit receive a
// synthesized 429 and are closed without being parsed. ratePerSec <= 0
// disables limiting (the default).
func WithRateLimit(ratePerSec float64, burst int) Option {
	return func(s *Server) {
		if ratePerSec <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}
}

// WithMaxHeaderBytes overrides DefaultMaxHeaderBytes for this server's
// request parsing. n <= 0 keeps the default.
func WithMaxHeaderBytes(n int) Option {
	return func(s *Server) { s.maxHeader = n }
}

// WithSupervisor runs the accept loop under sup instead of a bare goroutine,
// giving it panic recovery and restart-on-crash semantics. The connection
// handlers themselves still run on the task pool.
func WithSupervisor(sup *supervisor.Supervisor) Option {
	return func(s *Server) { s.sup = sup }
}

// SetSupervisor attaches a supervisor after construction, for callers that
// only have one available once their own Start sequence begins.
func (s *Server) SetSupervisor(sup *supervisor.Supervisor) { s.sup = sup }

// New creates a Server. If no pool is supplied via WithPool, an internal
// pool sized to numWorkers (0 = runtime default) is created.
func New(numWorkers int, opts ...Option) *Server {
	s := &Server{
		router:     NewRouter(),
		errorPages: NewErrorPages(),
		static:     NewStaticServer("", false, "index.html"),
	}
	for _, o := range opts {
		o(s)
	}
	if s.pool == nil {
		var poolOpts []taskpool.Option
		if !s.log.IsZero() {
			poolOpts = append(poolOpts, taskpool.WithLogger(s.log))
		}
		s.pool = taskpool.New(numWorkers, poolOpts...)
	}
	return s
}

// Handle registers a route pattern. Routes are matched in registration
// order; the first match wins.
func (s *Server) Handle(pattern string, handler Handler) {
	s.router.Handle(pattern, handler)
}

// AddErrorPage registers a custom error page file for an HTTP status code.
func (s *Server) AddErrorPage(code int, filePath string) {
	s.errorPages.Add(code, filePath)
}

// LoadPluginDir scans dir for Go plugin modules ("*.so") and registers each
// as a route handler at "/<basename-without-extension>", looking up a symbol
// named "Handler" in each. A module that fails to load is still registered,
// at the same route, answering 500 for every request — matching the
// tolerant "keep serving, log the broken module" behavior of Load itself.
// A non-existent or unreadable dir is treated as "no plugins", not an
// error, since PluginDir is an optional, often-empty config field.
func (s *Server) LoadPluginDir(dir string) {
	if dir == "" {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !s.log.IsZero() {
			s.log.Warn("httpd: plugin dir unreadable", logx.String("dir", dir), logx.Err(err))
		}
		return
	}

	except := func(msg string) {
		if !s.log.IsZero() {
			s.log.Warn("httpd: " + msg)
		}
	}
	registry := NewDynamicRegistry(except)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".so") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".so")
		pattern := "/" + name

		id, err := registry.Register(filepath.Join(dir, entry.Name()))
		var handler Handler
		if err != nil {
			except(err.Error())
			handler = failedModuleHandler(entry.Name())
		} else {
			handler = registry.Load(id, "Handler")
		}
		s.Handle(pattern, handler)
		if !s.log.IsZero() {
			s.log.Info("httpd: registered dynamic module", logx.String("pattern", pattern), logx.String("module", entry.Name()))
		}
	}
}

// IsRunning reports whether the listener is currently accepting
// connections.
func (s *Server) IsRunning() bool { return s.running.Load() }

// Start binds addr (host:port) with SO_REUSEADDR and SO_REUSEPORT set, and
// begins accepting connections in the background. Each connection is
// dispatched onto the task pool; Start returns once the listener is bound.
func (s *Server) Start(addr string) error {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var ctrlErr error
			err := c.Control(func(fd uintptr) {
				if err := syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
					ctrlErr = err
					return
				}
				if err := setReusePort(int(fd)); err != nil {
					ctrlErr = err
				}
			})
			if err != nil {
				return err
			}
			return ctrlErr
		},
	}

	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return fmt.Errorf("httpd: listen %s: %w", addr, err)
	}
	s.listener = ln
	s.running.Store(true)

	if s.sup != nil {
		s.sup.GoRestart0("httpd.accept", func(ctx context.Context) { s.acceptLoop() },
			supervisor.WithStopOnCleanExit(true))
	} else {
		go s.acceptLoop()
	}
	return nil
}

// Stop closes the listener and waits for in-flight connections to finish.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.pool.WaitIdle()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			if !s.log.IsZero() {
				s.log.Warn("httpd: accept failed", logx.Err(err))
			}
			continue
		}
		if s.limiter != nil && !s.limiter.Allow() {
			resp := s.errorPages.Render(429, "too many requests")
			_, _ = conn.Write([]byte(BuildResponseString(resp)))
			_ = conn.Close()
			continue
		}
		if err := s.pool.Submit(func() { s.handleConnection(conn) }); err != nil {
			resp := s.errorPages.Render(500, "server shutting down")
			_, _ = conn.Write([]byte(BuildResponseString(resp)))
			_ = conn.Close()
		}
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reqID := uuid.NewString()
	except := func(msg string) {
		if !s.log.IsZero() {
			s.log.Debug("httpd: "+msg, logx.String("request_id", reqID))
		}
	}

	req, err := ReadRequest(conn, s.maxHeader, except)
	if err != nil {
		resp := s.errorPages.Render(400, "request too large or malformed")
		resp.SetHeader("X-Request-Id", reqID)
		_, _ = conn.Write([]byte(BuildResponseString(resp)))
		return
	}

	resp := s.routeRequest(req)
	resp.SetHeader("X-Request-Id", reqID)
	_, _ = conn.Write([]byte(BuildResponseString(resp)))

	if !s.log.IsZero() {
		s.log.Debug("httpd: request served",
			logx.String("request_id", reqID),
			logx.String("method", req.Method),
			logx.String("path", req.RequestPath),
			logx.Int("status", resp.StatusCode),
			logx.String("body_size", humanize.Bytes(uint64(len(req.ContentsBytes)))),
		)
	}

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{
			Type: "http.request.served",
			Data: map[string]any{"request_id": reqID, "path": req.RequestPath, "status": resp.StatusCode},
		})
	}
}

func (s *Server) routeRequest(req *Request) (resp Response) {
	handler, params, ok := s.router.Match(req.RequestPath)
	if !ok {
		if r, ok := s.static.Serve(req.RequestPath); ok {
			return r
		}
		return s.errorPages.Render(404, "")
	}

	defer func() {
		if r := recover(); r != nil {
			if !s.log.IsZero() {
				s.log.Error("httpd: handler panicked", logx.String("path", req.RequestPath), logx.Any("panic", r))
			}
			resp = s.errorPages.Render(500, "handler panicked")
		}
	}()
	return handler(s.env, req, params)
}
