package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/glossary/internal/auth"
)

const sessionCookie = "glossary_session"

type userKey struct{}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// readCredentials accepts a JSON body or a form post.
func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&c)
		return c, err
	}
	if err := r.ParseForm(); err != nil {
		return c, err
	}
	c.Username = r.PostForm.Get("username")
	c.Password = r.PostForm.Get("password")
	return c, nil
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.auth.Signup(r.Context(), c.Username, c.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		s.respondError(w, http.StatusBadRequest, "Username and password are required.")
	case errors.Is(err, auth.ErrWeakPassword):
		s.respondError(w, http.StatusBadRequest, "Password must be 8+ chars with upper & lowercase.")
	case errors.Is(err, auth.ErrUsernameTaken):
		s.respondError(w, http.StatusConflict, "Username already exists.")
	case err != nil:
		s.logger.Error("signup failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	default:
		s.respondJSON(w, http.StatusCreated, map[string]string{"status": "created", "username": user.Username})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, expires, err := s.auth.Login(r.Context(), c.Username, c.Password)
	if errors.Is(err, auth.ErrUnauthorized) {
		s.respondError(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	}
	if err != nil {
		s.logger.Error("login failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.setSessionCookie(w, token, expires)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "logged_in", "username": strings.TrimSpace(c.Username)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			s.logger.Warn("logout failed", zap.Error(err))
		}
	}
	s.setSessionCookie(w, "", time.Unix(0, 0))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, value string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.config.Auth.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)
}

// requireLogin rejects requests without a live session with 401 and message.
func (s *Server) requireLogin(message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookie)
			if err != nil {
				s.respondError(w, http.StatusUnauthorized, message)
				return
			}
			username, err := s.auth.Authenticate(r.Context(), cookie.Value)
			if errors.Is(err, auth.ErrUnauthorized) {
				s.respondError(w, http.StatusUnauthorized, message)
				return
			}
			if err != nil {
				s.logger.Error("session lookup failed", zap.Error(err))
				s.respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, username)))
		})
	}
}

// currentUser returns the username set by requireLogin.
func currentUser(ctx context.Context) string {
	name, _ := ctx.Value(userKey{}).(string)
	return name
}
