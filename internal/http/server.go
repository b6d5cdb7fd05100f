package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"paydash/internal/cache"
	"paydash/internal/core"
	"paydash/internal/log"
	"paydash/internal/metrics"
	"paydash/internal/middleware/ratelimit"
	"paydash/internal/middleware/security"
	"paydash/internal/middleware/trace"
	appweb "paydash/web"

	"github.com/gorilla/handlers"
)

const (
	partialTemplate = "dashboard-main"
	pageTemplate    = "dashboard.html"
)

// Dashboard is the state the server presents. *aggregator.Aggregator
// satisfies it.
type Dashboard interface {
	Snapshot() core.Snapshot
	Refresh(ctx context.Context) (core.Snapshot, error)
	Subscribe() (<-chan core.Snapshot, func())
	Ready() bool
	Interval() time.Duration
	Source() string
}

// Options tune the server. Zero values select defaults.
type Options struct {
	TopClients     int
	Logger         *log.Logger
	RefreshLimit   ratelimit.Config
	TrustedProxies []string
}

type Server struct {
	http.Server
	templates  *template.Template
	dash       Dashboard
	logger     *log.Logger
	topClients int
	startedAt  time.Time

	ipResolver *security.IPResolver
	limiter    *ratelimit.Limiter
	partials   *cache.LRUCache[[]byte]
	hub        *Hub

	stopHub      func()
	hubDone      chan struct{}
	shutdownOnce sync.Once
}

// NewServer configures routes and templates and starts pushing snapshots to
// websocket clients. Call Shutdown to release it.
func NewServer(addr string, dash Dashboard, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	topN := opts.TopClients
	if topN <= 0 {
		topN = DefaultTopClients
	}

	resolver := security.DefaultIPResolver()
	if opts.TrustedProxies != nil {
		r, err := security.NewIPResolver(opts.TrustedProxies...)
		if err != nil {
			return nil, fmt.Errorf("trusted proxies: %w", err)
		}
		resolver = r
	}

	s := &Server{
		dash:       dash,
		logger:     logger.WithComponent(log.ComponentHTTP),
		topClients: topN,
		startedAt:  time.Now(),
		ipResolver: resolver,
		limiter:    ratelimit.NewLimiter(opts.RefreshLimit),
		partials:   cache.NewLRUCache[[]byte](16, 10*time.Minute),
		hub:        NewHub(logger),
		hubDone:    make(chan struct{}),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Error("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	snaps, unsubscribe := dash.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	s.stopHub = func() {
		cancel()
		unsubscribe()
	}
	go func() {
		defer close(s.hubDone)
		s.hub.Run(ctx, snaps)
	}()

	return s, nil
}

func (s *Server) routes(logger *log.Logger) http.Handler {
	mux := http.NewServeMux()
	gz := handlers.CompressHandler

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(gz(static)))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.Handle("GET /{$}", gz(http.HandlerFunc(s.handleIndex)))
	mux.Handle("GET /ui/dashboard", gz(http.HandlerFunc(s.handleDashboardPartial)))
	mux.Handle("GET /api/dashboard", gz(http.HandlerFunc(s.handleAPIDashboard)))
	mux.Handle("POST /api/refresh",
		s.limiter.Middleware(s.ipResolver.ClientIP, s.handleRateLimited)(gz(http.HandlerFunc(s.handleRefresh))))
	// Not compressed: the upgrade needs the raw connection.
	mux.Handle("GET /ws", s.hub)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger.WithComponent(log.ComponentHTTP)}),
		handlers.PrintRecoveryStack(true),
	)
	tracer := trace.NewMiddleware(logger, s.ipResolver.ClientIP)

	return tracer.Middleware(recovery(headers.Middleware(mux)))
}

// recoveryLogger adapts Logger to handlers.RecoveryHandlerLogger.
type recoveryLogger struct{ l *log.Logger }

func (r recoveryLogger) Println(v ...any) {
	r.l.Error("Recovered from panic", "panic", fmt.Sprint(v...))
}

// Shutdown disconnects websocket clients, stops background work and then
// gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.stopHub()
		<-s.hubDone
		s.hub.Close()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// renderPartial renders the main dashboard section, cached per snapshot version.
func (s *Server) renderPartial(snap core.Snapshot) ([]byte, error) {
	key := "v" + strconv.FormatUint(snap.Version, 10)
	if body, ok := s.partials.Get(key); ok {
		metrics.RecordCache(true)
		return body, nil
	}
	metrics.RecordCache(false)

	if s.templates == nil {
		return nil, fmt.Errorf("templates not loaded")
	}
	view := buildView(snap, s.topClients, s.dash.Interval(), s.dash.Source())
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, partialTemplate, view); err != nil {
		return nil, fmt.Errorf("render %s: %w", partialTemplate, err)
	}
	body := buf.Bytes()
	s.partials.Set(key, body)
	return body, nil
}
