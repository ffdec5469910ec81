package app

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"

	"quizhub/internal/app/view"
)

func newCSRFToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

const csrfCookieName = view.CSRFCookieName
const csrfFieldName = "csrf_token"
const csrfHeaderName = "X-CSRF-Token"

type rateBucket struct {
	Count      int
	WindowEnds time.Time
}

type IPRateLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	store  map[string]rateBucket
}

func NewIPRateLimiter(max int, window time.Duration) *IPRateLimiter {
	if max <= 0 {
		max = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &IPRateLimiter{
		max:    max,
		window: window,
		store:  make(map[string]rateBucket),
	}
}

func (l *IPRateLimiter) Allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.store[key]
	if now.After(b.WindowEnds) {
		b = rateBucket{Count: 0, WindowEnds: now.Add(l.window)}
	}
	if b.Count >= l.max {
		l.store[key] = b
		return false
	}
	b.Count++
	l.store[key] = b
	return true
}

func RateLimitMiddleware(l *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := strings.TrimSpace(r.RemoteAddr)
			key := ip + "|" + r.Method + "|" + r.URL.Path
			if !l.Allow(key) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRFMiddleware checks mutating requests against the csrf cookie. Forms
// carry the token in a hidden field; non-form clients may use the header.
func CSRFMiddleware(enforced bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				if _, err := r.Cookie(csrfCookieName); err != nil {
					if token, err := newCSRFToken(); err == nil {
						c := &http.Cookie{
							Name:     csrfCookieName,
							Value:    token,
							Path:     "/",
							HttpOnly: true,
							SameSite: http.SameSiteLaxMode,
						}
						http.SetCookie(w, c)
						// Make the token visible to this request's render too.
						r.AddCookie(c)
					}
				}
				next.ServeHTTP(w, r)
				return
			}
			if !enforced {
				next.ServeHTTP(w, r)
				return
			}

			c, err := r.Cookie(csrfCookieName)
			if err != nil || strings.TrimSpace(c.Value) == "" {
				view.AddFlash(w, r, "Your session expired, please retry.", view.LevelError)
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			token := strings.TrimSpace(r.PostFormValue(csrfFieldName))
			if token == "" {
				token = strings.TrimSpace(r.Header.Get(csrfHeaderName))
			}
			if token == "" || token != c.Value {
				view.AddFlash(w, r, "Your session expired, please retry.", view.LevelError)
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
