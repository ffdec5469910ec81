package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"quizhub/internal/app/view"
)

const sessionCookieName = "quizhub_session"

type ctxKey string

const userContextKey ctxKey = "auth.user"

type authService interface {
	Register(ctx context.Context, username, password string) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	CreateSession(ctx context.Context, userID int64) (string, time.Time, error)
	GetSessionUser(ctx context.Context, token string) (*User, error)
	RevokeSession(ctx context.Context, token string) error
}

type Handler struct {
	svc    authService
	render *view.Renderer
	logger *slog.Logger
}

func NewHandler(svc authService, render *view.Renderer, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, render: render, logger: logger}
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

func CurrentUser(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userContextKey).(*User)
	return u, ok && u != nil
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := CurrentUser(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render.Render(w, r, "register", nil)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	_, err := h.svc.Register(r.Context(), username, password)
	switch {
	case err == nil:
		view.AddFlash(w, r, "Registration complete, you can sign in now.", view.LevelSuccess)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case isUserFacing(err):
		view.AddFlash(w, r, userMessage(err), view.LevelError)
		http.Redirect(w, r, "/register", http.StatusSeeOther)
	default:
		h.logger.Error("register user", "error", err)
		view.AddFlash(w, r, "Registration failed, please try again.", view.LevelError)
		http.Redirect(w, r, "/register", http.StatusSeeOther)
	}
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := CurrentUser(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render.Render(w, r, "login", nil)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.svc.Authenticate(r.Context(), username, password)
	switch {
	case err == nil:
	case isUserFacing(err):
		view.AddFlash(w, r, "Invalid username or password.", view.LevelError)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	default:
		h.logger.Error("authenticate user", "error", err)
		view.AddFlash(w, r, "Sign in failed, please try again.", view.LevelError)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	token, expiresAt, err := h.svc.CreateSession(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("create session", "user_id", user.ID, "error", err)
		view.AddFlash(w, r, "Sign in failed, please try again.", view.LevelError)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	view.AddFlash(w, r, "Signed in as "+user.Username+".", view.LevelSuccess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if err := h.svc.RevokeSession(r.Context(), c.Value); err != nil {
			h.logger.Error("revoke session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	view.AddFlash(w, r, "You have been signed out.", view.LevelSuccess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LoadUser resolves the session cookie into the request context when a
// valid session exists. Anonymous requests pass through untouched.
func (h *Handler) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookieName)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := h.svc.GetSessionUser(r.Context(), c.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// RequireAuth turns away anonymous requests with a notice instead of a
// bare 401, which fits a browser-facing app better.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); !ok {
			view.AddFlash(w, r, "Please sign in to continue.", view.LevelError)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r.Context())
		if !ok {
			view.AddFlash(w, r, "Please sign in to continue.", view.LevelError)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if !user.IsAdmin {
			view.AddFlash(w, r, "Access denied, administrator rights required.", view.LevelError)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isUserFacing(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrDuplicateUsername),
		errors.Is(err, ErrMissingCredentials):
		return true
	}
	return false
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateUsername):
		return "That username is already taken."
	case errors.Is(err, ErrMissingCredentials):
		return "Username and password are required."
	default:
		return "Invalid username or password."
	}
}
