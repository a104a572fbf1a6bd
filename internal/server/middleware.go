package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	"github.com/theirongolddev/salescast/internal/auth"
)

type ctxKey int

const sessionCtxKey ctxKey = iota

// Cookie session value keys.
const (
	keySessionID     = "sid"
	keyUser          = "user"
	keyAuthenticated = "is_authenticated"
	keyFlash         = "notice"
)

func withSession(ctx context.Context, sess *auth.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, sess)
}

// sessionFrom returns the session attached by the auth middleware.
func sessionFrom(ctx context.Context) *auth.Session {
	sess, _ := ctx.Value(sessionCtxKey).(*auth.Session)
	return sess
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

// markPlaintext tells the CSRF check the site is served over plain HTTP so
// it skips the HTTPS referer requirement.
func (s *Server) markPlaintext(next http.Handler) http.Handler {
	if s.cfg.SecureCookies {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

func (s *Server) csrfProtect() func(http.Handler) http.Handler {
	return csrf.Protect(s.csrfKey,
		csrf.Secure(s.cfg.SecureCookies),
		csrf.Path("/"),
		csrf.CookieName("salescast_csrf"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := "unknown"
			if err := csrf.FailureReason(r); err != nil {
				reason = err.Error()
			}
			s.log.Warn("csrf rejected",
				zap.String("path", r.URL.Path),
				zap.String("reason", reason),
			)
			http.Error(w, "Forbidden - invalid CSRF token", http.StatusForbidden)
		})),
	)
}

// cookieSession rebuilds the auth session from the signed cookie. A cookie
// that fails to decode is treated as signed out.
func (s *Server) cookieSession(r *http.Request) *auth.Session {
	cs, err := s.cookies.Get(r, sessionName)
	if err != nil {
		return auth.NewSession()
	}
	ok, _ := cs.Values[keyAuthenticated].(bool)
	user, _ := cs.Values[keyUser].(string)
	if !ok || user == "" {
		return auth.NewSession()
	}
	id, _ := cs.Values[keySessionID].(string)
	return auth.Restore(id, user)
}

// requireSignedIn redirects browsers without a signed-in cookie to /login.
func (s *Server) requireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.cookieSession(r)
		if !sess.Authenticated {
			target := "/login"
			if r.Method == http.MethodGet && r.URL.Path != "/" {
				target += "?next=" + url.QueryEscape(r.URL.RequestURI())
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
	})
}

// requireAPIAuth accepts a Bearer token on any request and the browser
// cookie on reads only, since /v1 is not CSRF protected.
func (s *Server) requireAPIAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			tok, ok := strings.CutPrefix(h, "Bearer ")
			if !ok {
				writeError(w, http.StatusUnauthorized, "authorization must be a Bearer token")
				return
			}
			sess, err := s.tokens.Parse(strings.TrimSpace(tok))
			if err != nil {
				s.log.Debug("token rejected", zap.Error(err))
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
			return
		}

		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			if sess := s.cookieSession(r); sess.Authenticated {
				next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
				return
			}
		}
		writeError(w, http.StatusUnauthorized, "authentication required")
	})
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
