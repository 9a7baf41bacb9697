package api

import (
	"net/http"

	"jobtrail/internal/common/validation"
	"jobtrail/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	const failed = "Sign up failed"
	var in credentials
	if err := decode(r, validation.SignUpSchema, &in); err != nil {
		s.fail(w, r, err, failed)
		return
	}
	session, err := s.auth.SignUp(r.Context(), in.Email, in.Password, in.Phone)
	if err != nil {
		s.fail(w, r, err, failed)
		return
	}
	if err := s.saveCookie(w, r, session); err != nil {
		s.fail(w, r, err, failed)
		return
	}
	s.done(w, http.StatusCreated, session, "Account created", "Your account is ready. You are now signed in.")
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	const failed = "Sign in failed"
	var in credentials
	if err := decode(r, validation.SignInSchema, &in); err != nil {
		s.fail(w, r, err, failed)
		return
	}
	session, err := s.auth.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		s.fail(w, r, err, failed)
		return
	}
	if err := s.saveCookie(w, r, session); err != nil {
		s.fail(w, r, err, failed)
		return
	}
	s.done(w, http.StatusOK, session, "Signed in", "Welcome back.")
}

// signOut ends the caller's session, or every session of the user with
// ?all=true. Signing out without a session succeeds.
func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	const failed = "Error signing out"
	token := s.tokenFrom(r)
	if token != "" {
		if r.URL.Query().Get("all") == "true" {
			session, err := s.auth.CurrentSession(r.Context(), token)
			if err == nil {
				err = s.auth.SignOutAll(r.Context(), session.UserID)
			}
			if err != nil {
				s.fail(w, r, err, failed)
				return
			}
		} else if err := s.auth.SignOut(r.Context(), token); err != nil {
			s.fail(w, r, err, failed)
			return
		}
	}
	s.clearCookie(w, r)
	s.done(w, http.StatusOK, nil, "Signed out", "You have been signed out successfully.")
}

func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) {
	s.JSON(w, http.StatusOK, sessionFrom(r))
}

func (s *Server) saveCookie(w http.ResponseWriter, r *http.Request, session *models.Session) error {
	sess, _ := s.cookies.New(r, s.cookieName)
	sess.Values["token"] = session.Token
	return sess.Save(r, w)
}

func (s *Server) clearCookie(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.cookies.New(r, s.cookieName)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		s.logger.Warn("failed to clear session cookie", map[string]interface{}{"error": err.Error()})
	}
}
