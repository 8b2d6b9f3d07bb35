package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hrdash/internal/dashboard"
	"hrdash/internal/log"
	"hrdash/internal/metrics"
	"hrdash/internal/middleware/ratelimit"
	"hrdash/internal/middleware/security"
	"hrdash/internal/middleware/trace"
	"hrdash/internal/session"
	appweb "hrdash/web"
)

// Options configure a Server.
type Options struct {
	Addr                string
	Store               session.Store
	Derive              dashboard.Options
	StrictColumns       bool
	MaxUploadBytes      int64
	UploadRatePerMinute int
	MetricsEnabled      bool
	Logger              *log.Logger
}

type Server struct {
	http.Server
	templates  *template.Template
	store      session.Store
	derive     dashboard.Options
	strict     bool
	maxUpload  int64
	limiter    *ratelimit.Limiter
	ipResolver *security.IPResolver
	logger     *log.Logger
	events     *log.StructuredLogger
	started    time.Time
}

// knownRoutes bounds the route label of the latency histogram.
var knownRoutes = map[string]bool{
	"/":              true,
	"/ui/dashboard":  true,
	"/upload":        true,
	"/api/dashboard": true,
	"/healthz":       true,
	"/readyz":        true,
	"/metrics":       true,
}

func routeLabel(r *http.Request) string {
	if strings.HasPrefix(r.URL.Path, "/static/") {
		return "/static/"
	}
	if knownRoutes[r.URL.Path] {
		return r.URL.Path
	}
	return "other"
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("session store is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Derive.Schema == nil {
		opts.Derive.Schema = dashboard.DefaultSchema()
	}
	if opts.Derive.Duplicates == "" {
		opts.Derive.Duplicates = dashboard.DuplicatesFirst
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		templates:  t,
		store:      opts.Store,
		derive:     opts.Derive,
		strict:     opts.StrictColumns,
		maxUpload:  opts.MaxUploadBytes,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.UploadRatePerMinute}),
		ipResolver: security.NewIPResolver(),
		logger:     logger,
		events:     log.NewStructuredLogger(opts.Logger),
		started:    time.Now(),
	}

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("/static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	uploadLimit := s.limiter.Middleware(s.ipResolver.ClientIP, s.handleRateLimited)

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ui/dashboard", s.handleDashboardPartial)
	mux.Handle("/upload", uploadLimit(http.HandlerFunc(s.handleUpload)))
	mux.HandleFunc("/api/dashboard", s.handleDashboardAPI)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	if opts.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(opts.Logger, s.ipResolver.ClientIP, routeLabel)
	s.Handler = headers.Middleware(tracer.Middleware(mux))

	return s, nil
}

// RunBackground runs the server's housekeeping until ctx is done.
func (s *Server) RunBackground(ctx context.Context) error {
	return s.limiter.Run(ctx)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	metrics.RateLimited.Inc()
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.ipResolver.ClientIP(r),
		log.FieldPath, r.URL.Path)
	errorReply(http.StatusTooManyRequests, msgRateLimited).
		notify(levelError, msgRateLimited).
		send(w)
}
