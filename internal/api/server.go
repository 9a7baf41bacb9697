// Package api serves the tracker over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobtrail/internal/common/auth"
	"jobtrail/internal/common/logger"
	"jobtrail/internal/common/observability"
	"jobtrail/internal/service"
)

const (
	defaultCookieName = "jobtrail_session"
	loginPath         = "/login"
)

type Config struct {
	SessionKey   []byte
	CookieName   string
	SecureCookie bool
	SessionTTL   time.Duration
}

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	router     *mux.Router
	tracker    *service.Service
	auth       *auth.Authenticator
	cookies    *sessions.CookieStore
	cookieName string
	obs        *observability.Observability
	ready      ReadinessCheck
	logger     logger.Logger
}

func NewServer(cfg Config, tracker *service.Service, authn *auth.Authenticator, obs *observability.Observability, ready ReadinessCheck, log logger.Logger) *Server {
	cookies := sessions.NewCookieStore(cfg.SessionKey)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	name := cfg.CookieName
	if name == "" {
		name = defaultCookieName
	}
	if obs == nil {
		obs = &observability.Observability{}
	}

	s := &Server{
		router:     mux.NewRouter(),
		tracker:    tracker,
		auth:       authn,
		cookies:    cookies,
		cookieName: name,
		obs:        obs,
		ready:      ready,
		logger:     log.WithFields(map[string]interface{}{"component": "api"}),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.loggingMiddleware, s.metricsMiddleware)

	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.readiness).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/signup", s.signUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/signin", s.signIn).Methods(http.MethodPost)
	api.HandleFunc("/auth/signout", s.signOut).Methods(http.MethodPost)

	private := api.NewRoute().Subrouter()
	private.Use(s.requireSession)
	private.HandleFunc("/session", s.currentSession).Methods(http.MethodGet)
	private.HandleFunc("/dashboard", s.dashboard).Methods(http.MethodGet)

	private.HandleFunc("/applications", s.listApplications).Methods(http.MethodGet)
	private.HandleFunc("/applications", s.createApplication).Methods(http.MethodPost)
	private.HandleFunc("/applications/board", s.board).Methods(http.MethodGet)
	private.HandleFunc("/applications/{id}", s.applicationDetail).Methods(http.MethodGet)
	private.HandleFunc("/applications/{id}", s.updateApplication).Methods(http.MethodPut)
	private.HandleFunc("/applications/{id}", s.deleteApplication).Methods(http.MethodDelete)
	private.HandleFunc("/applications/{id}/expire", s.expireApplication).Methods(http.MethodPost)
	private.HandleFunc("/applications/{id}/timeline", s.timeline).Methods(http.MethodGet)

	private.HandleFunc("/follow-ups", s.followUps).Methods(http.MethodGet)
	private.HandleFunc("/follow-ups/{id}/complete", s.completeFollowUp).Methods(http.MethodPost)

	private.HandleFunc("/calendar", s.calendar).Methods(http.MethodGet)
	private.HandleFunc("/statistics", s.statistics).Methods(http.MethodGet)

	private.HandleFunc("/settings", s.settings).Methods(http.MethodGet)
	private.HandleFunc("/settings", s.saveSettings).Methods(http.MethodPut)
	private.HandleFunc("/targets/today", s.dailyTarget).Methods(http.MethodGet)
	private.HandleFunc("/targets/today", s.setDailyTarget).Methods(http.MethodPut)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) readiness(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.Warn("readiness check failed", map[string]interface{}{"error": err.Error()})
			s.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
	}
	s.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
