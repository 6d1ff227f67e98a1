// Package auth gates the admin panel behind a shared passphrase. It keeps
// casual visitors out and nothing more.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/config"
	"github.com/debemdeboas/yasny-slukh/internal/routes"
	"github.com/debemdeboas/yasny-slukh/internal/session"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var authLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	authLogger = l
}

var (
	ErrWrongPassphrase = errors.New("wrong passphrase")
	ErrTooManyAttempts = errors.New("too many login attempts")
	ErrAdminDisabled   = errors.New("admin passphrase is not configured")
)

// PassphraseProvider logs admins in with a passphrase and tracks them with a
// session cookie.
type PassphraseProvider struct {
	passphrase string
	sessions   *session.Manager
	limiter    *rate.Limiter
	cookieName string
	maxAge     time.Duration
}

// NewPassphraseProvider allows one login attempt per every, with bursts of
// burst attempts. Cookies live for maxAge.
func NewPassphraseProvider(passphrase string, sessions *session.Manager, every time.Duration, burst int, maxAge time.Duration) *PassphraseProvider {
	return &PassphraseProvider{
		passphrase: passphrase,
		sessions:   sessions,
		limiter:    rate.NewLimiter(rate.Every(every), burst),
		cookieName: config.CookieAdminSession,
		maxAge:     maxAge,
	}
}

// Login checks passphrase and opens a session. The session is returned even
// when its first load fails; the admin can reload from the panel.
func (p *PassphraseProvider) Login(ctx context.Context, passphrase string) (*session.Session, error) {
	if p.passphrase == "" {
		return nil, ErrAdminDisabled
	}
	if !p.limiter.Allow() {
		authLogger.Warn().Msg("Login attempt throttled")
		return nil, ErrTooManyAttempts
	}
	if subtle.ConstantTimeCompare([]byte(passphrase), []byte(p.passphrase)) != 1 {
		authLogger.Warn().Msg("Wrong admin passphrase")
		return nil, ErrWrongPassphrase
	}

	s, err := p.sessions.Create(ctx)
	if err != nil {
		authLogger.Error().Err(err).Str("session", s.ID).Msg("Error loading content for new session")
	}
	return s, nil
}

func (p *PassphraseProvider) SetCookie(w http.ResponseWriter, s *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.cookieName,
		Value:    s.ID,
		Path:     routes.Admin,
		MaxAge:   int(p.maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Logout ends the session of r, if any, and clears the cookie.
func (p *PassphraseProvider) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(p.cookieName); err == nil {
		p.sessions.Delete(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     p.cookieName,
		Value:    "",
		Path:     routes.Admin,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// WithSession returns middleware that puts the session named by the cookie,
// when it is still alive, into the request context.
func (p *PassphraseProvider) WithSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(p.cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			s, err := p.sessions.Get(cookie.Value)
			if err != nil {
				authLogger.Debug().Err(err).Msg("Stale admin session cookie")
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), s)))
		})
	}
}

// Require sends requests without a session to the login page.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, config.ErrSessionRequired, http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, LoginURL(r.URL.String()), http.StatusFound)
	})
}

// LoginURL is the login page returning to redirect afterwards.
func LoginURL(redirect string) string {
	return routes.AdminLogin + "?redirect=" + url.QueryEscape(redirect)
}
