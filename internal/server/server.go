// Package server serves the sales dashboard over HTTP: HTML pages for the
// browser, a JSON API for scripts, and a live feed of saved records.
package server

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/theirongolddev/salescast/internal/auth"
	"github.com/theirongolddev/salescast/internal/pipeline"
)

const sessionName = "salescast"

// Config controls the HTTP server.
type Config struct {
	Addr          string
	SecureCookies bool
	// SessionKey signs the browser cookie. Empty means a random key per
	// process, so browser sessions end on restart.
	SessionKey    string
	SessionMaxAge time.Duration
	EventsBuffer  int
	Backend       string
	// PollInterval enables store polling for writes made outside the
	// server. Zero disables it.
	PollInterval  time.Duration
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	Backend         string    `json:"backend,omitempty"`
	Horizon         int       `json:"horizon"`
	SaveCount       int64     `json:"save_count"`
	LastSaveAt      time.Time `json:"last_save_at"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Server is the dashboard HTTP surface.
type Server struct {
	cfg      Config
	dash     *pipeline.Dashboard
	verifier auth.Verifier
	tokens   *auth.TokenIssuer
	cookies  *sessions.CookieStore
	csrfKey  []byte
	log      *zap.Logger
	pages    *template.Template

	mu          sync.RWMutex
	startedAt   time.Time
	saveCount   int64
	lastSaveAt  time.Time
	lastError   string
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a server for dash. A nil tokens issuer gets a random secret,
// which invalidates API tokens on restart.
func New(cfg Config, dash *pipeline.Dashboard, v auth.Verifier, tokens *auth.TokenIssuer, logger *zap.Logger) (*Server, error) {
	if dash == nil {
		return nil, errors.New("server: dashboard is required")
	}
	if v == nil {
		v = auth.DefaultVerifier()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8501"
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.SessionMaxAge <= 0 {
		cfg.SessionMaxAge = 12 * time.Hour
	}

	var hashKey, csrfKey []byte
	if cfg.SessionKey != "" {
		h := sha256.Sum256([]byte("session:" + cfg.SessionKey))
		c := sha256.Sum256([]byte("csrf:" + cfg.SessionKey))
		hashKey, csrfKey = h[:], c[:]
	} else {
		logger.Warn("session key not configured; browser sessions will not survive a restart")
		hashKey = securecookie.GenerateRandomKey(32)
		csrfKey = securecookie.GenerateRandomKey(32)
		if hashKey == nil || csrfKey == nil {
			return nil, errors.New("server: generating session keys failed")
		}
	}

	if tokens == nil {
		secret := securecookie.GenerateRandomKey(32)
		if secret == nil {
			return nil, errors.New("server: generating token secret failed")
		}
		var err error
		tokens, err = auth.NewTokenIssuer(string(secret), 0)
		if err != nil {
			return nil, err
		}
	}

	store := sessions.NewCookieStore(hashKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		Secure:   cfg.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:       cfg,
		dash:      dash,
		verifier:  v,
		tokens:    tokens,
		cookies:   store,
		csrfKey:   csrfKey,
		log:       logger,
		pages:     pages,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.With(chimw.Timeout(30*time.Second)).Post("/login", s.handleAPILogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAPIAuth)
			r.Get("/stream", s.handleStream)
			r.Group(func(r chi.Router) {
				r.Use(chimw.Timeout(30 * time.Second))
				r.Get("/records", s.handleAPIRecords)
				r.Post("/records", s.handleAPISubmit)
				r.Get("/forecast", s.handleAPIForecast)
				r.Get("/forecast.csv", s.handleForecastCSV)
				r.Get("/forecast.xlsx", s.handleForecastXLSX)
				r.Get("/status", s.handleStatus)
				r.Get("/events", s.handleEvents)
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		r.Use(s.markPlaintext)
		r.Use(s.csrfProtect())
		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSignedIn)
			r.Get("/", s.handleDashboard)
			r.Post("/records", s.handleSubmit)
			r.Post("/logout", s.handleLogout)
		})
	})

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("listening", zap.String("addr", s.cfg.Addr))

	if s.cfg.PollInterval > 0 {
		go s.watch(ctx, s.cfg.PollInterval)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeSubscribers()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// recordSave counts a save and returns the new total.
func (s *Server) recordSave(at time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCount++
	s.lastSaveAt = at
	s.lastError = ""
	return s.saveCount
}

func (s *Server) recordError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

func (s *Server) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		Backend:         s.cfg.Backend,
		Horizon:         s.dash.Horizon,
		SaveCount:       s.saveCount,
		LastSaveAt:      s.lastSaveAt,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}
