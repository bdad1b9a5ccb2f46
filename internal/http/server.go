package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"myexpenses/internal/log"
	"myexpenses/internal/services"
	appweb "myexpenses/web"
)

const headerRequestID = "X-Request-ID"

// Options configures a Server.
type Options struct {
	Addr               string
	Service            *services.ExpenseService
	Categories         []string
	RateLimitPerMinute int
	TrustedProxies     []string
	MaxImportBytes     int64
	Logger             *log.Logger

	// Templates and Static default to the embedded web assets.
	Templates fs.FS
	Static    fs.FS
}

// Server is the web front end over an ExpenseService.
type Server struct {
	http.Server
	svc            *services.ExpenseService
	categories     []string
	templates      *template.Template
	rateLimiter    *rateLimiter
	trustedProxies []*net.IPNet
	maxImportBytes int64
	metrics        *securityMetrics
	logger         *log.Logger
	reqLog         *log.StructuredLogger
	started        time.Time
	stopOnce       sync.Once
}

// DefaultMaxImportBytes caps CSV uploads when no limit is configured.
const DefaultMaxImportBytes int64 = 5 << 20

// NewServer wires routes and middleware. A template parse failure is logged
// and surfaces as 500s and a failing /readyz rather than a startup error.
func NewServer(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, errors.New("expense service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	proxies, err := parseTrustedProxies(opts.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	maxImport := opts.MaxImportBytes
	if maxImport <= 0 {
		maxImport = DefaultMaxImportBytes
	}

	s := &Server{
		svc:            opts.Service,
		categories:     opts.Categories,
		rateLimiter:    newRateLimiter(opts.RateLimitPerMinute),
		trustedProxies: proxies,
		maxImportBytes: maxImport,
		metrics:        &securityMetrics{},
		logger:         logger,
		reqLog:         log.NewStructuredLogger(logger),
		started:        time.Now(),
	}

	templatesFS := opts.Templates
	if templatesFS == nil {
		templatesFS = appweb.TemplatesFS
	}
	t, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		logger.WithComponent(log.ComponentTemplate).Error("Failed to parse templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	staticFS := opts.Static
	if staticFS == nil {
		if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
			staticFS = sub
		}
	}
	if staticFS != nil {
		fileServer := http.FileServer(http.FS(staticFS))
		mux.Handle("/static/", http.StripPrefix("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			fileServer.ServeHTTP(w, r)
		})))
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ui/table", s.handleTable)
	mux.HandleFunc("/ui/chart", s.handleChart)
	mux.HandleFunc("/expenses", s.handleCreateExpense)
	mux.HandleFunc("/expenses/delete", s.handleDeleteExpense)
	mux.HandleFunc("/expenses/clear", s.handleClearExpenses)
	mux.HandleFunc("/import", s.handleImport)
	mux.HandleFunc("/export", s.handleExport)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	handler := log.Middleware(logger)(
		log.RequestIDMiddleware(requestIDFor)(
			s.withSecurityHeaders(mux)))

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops background goroutines and then the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(s.rateLimiter.stop)
	return s.Server.Shutdown(ctx)
}

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// withSecurityHeaders resolves the client IP, rate limits POSTs, sets the
// security headers and logs the request once it completes.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r, s.trustedProxies)
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		if detectSuspiciousRequest(r, s.metrics) {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		h := rw.Header()
		h.Set(headerRequestID, r.Header.Get(headerRequestID))
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:")

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path)
			h.Set("Retry-After", "60")
			http.Error(rw, "rate limit exceeded", http.StatusTooManyRequests)
		} else {
			next.ServeHTTP(rw, r)
		}

		s.reqLog.LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.reqLog.LogError(r.Context(), "Template execution failed", err,
			log.ComponentTemplate, log.OpRender, log.LogFields{log.FieldFilename: name})
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports not ready while templates are missing.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.templates == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("templates not loaded"))
		return
	}
	w.Header().Set("X-Uptime-Seconds", strconv.FormatInt(int64(time.Since(s.started).Seconds()), 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
