package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/session"
	appweb "fintrack/web"
)

// Ledger is the subset of the ledger service the handlers use.
type Ledger interface {
	AddExpense(ctx context.Context, description string, amount core.Money, category core.Category) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) (bool, error)
	AddIncome(ctx context.Context, amount core.Money) error
	SetBudget(ctx context.Context, category core.Category, amount core.Money) error
	State() core.LedgerState
	Revision() uint64
	Dashboard(now time.Time) core.Dashboard
	Reload(ctx context.Context) error
}

// Sessions is the sign-in state machine.
type Sessions interface {
	SignIn(ctx context.Context, email, password string, remember bool) (string, error)
	SetRememberMe(ctx context.Context, enabled bool, email, password string) (session.Form, error)
	Prefill(ctx context.Context) session.Form
	SignOut(ctx context.Context) error
	Status(ctx context.Context, token string) session.State
	CurrentUser(ctx context.Context) (string, bool)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures NewServer. Zero values get defaults.
type Options struct {
	Addr               string
	CookieName         string
	SecureCookies      bool
	RateLimitPerMinute int
	TrustedProxies     []string // extra CIDRs allowed to set X-Forwarded-For
	Logger             *log.Logger
	Store              Pinger
	Now                func() time.Time
}

// Server wraps http.Server and carries the dependencies of the handlers.
type Server struct {
	http.Server

	ledger    Ledger
	sessions  Sessions
	store     Pinger
	templates *template.Template
	logger    *log.Logger
	now       func() time.Time
	started   time.Time

	cookieName    string
	secureCookies bool

	detector   *security.Detector
	tracer     *trace.Middleware
	limiter    *ratelimit.Limiter
	chartCache *cache.LRUCache[[]byte]
	caches     *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(opts Options, ledger Ledger, sessions Sessions) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CookieName == "" {
		opts.CookieName = "fintrack_session"
	}
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 60
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ErrorLog:          slog.NewLogLogger(logger.Slog().Handler(), slog.LevelError),
		},
		ledger:        ledger,
		sessions:      sessions,
		store:         opts.Store,
		logger:        logger,
		now:           opts.Now,
		started:       opts.Now(),
		cookieName:    opts.CookieName,
		secureCookies: opts.SecureCookies,
		detector:      security.NewDetector(opts.Logger),
		chartCache:    cache.NewLRUCache[[]byte](32, 10*time.Minute),
		caches:        cache.NewManager(opts.Logger),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
		CleanupInterval:   5 * time.Minute,
		Logger:            opts.Logger,
	})
	s.caches.Register(s.chartCache)
	s.caches.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
		t = nil
	}
	s.templates = t

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	auth := log.ComponentMiddleware(log.ComponentSession)
	mux.Handle("/signin", auth(http.HandlerFunc(s.handleSignIn)))
	mux.Handle("/signin/remember", auth(http.HandlerFunc(s.handleRememberMe)))
	mux.Handle("/signout", auth(http.HandlerFunc(s.handleSignOut)))

	ledger := func(h http.HandlerFunc) http.Handler {
		return s.requireAuth(log.ComponentMiddleware(log.ComponentLedger)(h))
	}
	mux.Handle("/", ledger(s.handleIndex))
	mux.Handle("/income", ledger(s.handleAddIncome))
	mux.Handle("/expenses", ledger(s.handleAddExpense))
	mux.Handle("/expenses/delete", ledger(s.handleDeleteExpense))
	mux.Handle("/budgets", ledger(s.handleSetBudget))
	mux.Handle("/ui/summary", ledger(s.handleSummary))
	mux.Handle("/ui/chart.png", ledger(s.handleChart))
	mux.Handle("/export/expenses.csv", security.NoStore(ledger(s.handleExportCSV)))
	mux.Handle("/api/ledger", security.NoStore(ledger(s.handleAPILedger)))

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		if isHTMX(r) {
			NewHTMXResponse().
				Status(http.StatusTooManyRequests).
				TriggerErrorNotification("Too many requests. Please try again later.").
				Write(w)
			return
		}
		NewHTMXResponse().
			Status(http.StatusTooManyRequests).
			Header("Content-Type", "text/plain; charset=utf-8").
			BodyString("Rate limit exceeded. Please try again later.").
			Write(w)
	}

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, onLimit)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)
	h = s.detector.Middleware(h)
	return h
}

// requireAuth lets signed-in requests through. Others go to the sign-in
// page, or get 401 with HX-Redirect when issued by htmx.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie(s.cookieName); err == nil {
			token = c.Value
		}
		if s.sessions.Status(r.Context(), token) == session.SignedIn {
			next.ServeHTTP(w, r)
			return
		}

		if isHTMX(r) {
			NewHTMXResponse().Status(http.StatusUnauthorized).Redirect("/signin").Write(w)
			return
		}
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			http.Redirect(w, r, "/signin", http.StatusSeeOther)
			return
		}
		UnauthorizedError("Please sign in").Write(w)
	})
}

// Shutdown stops background cleanup and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
