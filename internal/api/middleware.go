package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	apperrors "jobtrail/internal/common/errors"
	"jobtrail/internal/models"
)

type contextKey int

const sessionContextKey contextKey = iota

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request", map[string]interface{}{
			"method":          r.Method,
			"path":            r.URL.Path,
			"status":          rec.status,
			"duration_ms":     time.Since(start).Milliseconds(),
			"x-forwarded-for": r.Header.Get("X-Forwarded-For"),
		})
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		s.obs.RecordRequest(r.Context(), r.Method, route, rec.status, time.Since(start))
	})
}

// requireSession resolves the session from a bearer token or the session
// cookie. Browsers without one are sent to the login page.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.tokenFrom(r)
		if token == "" {
			s.unauthenticated(w, r, apperrors.NewAuthenticationError("no session"))
			return
		}
		session, err := s.auth.CurrentSession(r.Context(), token)
		if err != nil {
			if apperrors.HasCode(err, apperrors.ErrCodeAuthentication) {
				s.unauthenticated(w, r, err)
				return
			}
			s.fail(w, r, err, "")
			return
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) tokenFrom(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	sess, err := s.cookies.Get(r, s.cookieName)
	if err != nil {
		return ""
	}
	token, _ := sess.Values["token"].(string)
	return token
}

func (s *Server) unauthenticated(w http.ResponseWriter, r *http.Request, err error) {
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	s.JSON(w, http.StatusUnauthorized, envelope{Error: apperrors.Normalize(err), Redirect: loginPath})
}

func sessionFrom(r *http.Request) *models.Session {
	session, _ := r.Context().Value(sessionContextKey).(*models.Session)
	return session
}

func userID(r *http.Request) string {
	if session := sessionFrom(r); session != nil {
		return session.UserID
	}
	return ""
}
