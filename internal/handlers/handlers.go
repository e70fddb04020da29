package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"spendly/internal/auth"
	"spendly/internal/logger"
	"spendly/internal/models"
	"spendly/internal/storage"

	"go.uber.org/zap"
)

// contextKey keeps request values private to this package.
type contextKey string

const (
	// UserContextKey holds the signed-in *models.User.
	UserContextKey contextKey = "user"
	// SessionCookieName carries the session token.
	SessionCookieName = "session"
	// DefaultSessionDuration is used when no duration is configured.
	DefaultSessionDuration = 7 * 24 * time.Hour
)

// Handlers serves the HTML pages and the JSON API.
type Handlers struct {
	db              *storage.DB
	log             *zap.Logger
	templateDir     string
	secureCookie    bool
	sessionDuration time.Duration
}

// Options configures Handlers.
type Options struct {
	TemplateDir     string
	SecureCookie    bool
	SessionDuration time.Duration
}

// NewHandlers wires the handlers to db and log.
func NewHandlers(db *storage.DB, log *zap.Logger, opts Options) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.SessionDuration <= 0 {
		opts.SessionDuration = DefaultSessionDuration
	}
	return &Handlers{
		db:              db,
		log:             log,
		templateDir:     opts.TemplateDir,
		secureCookie:    opts.SecureCookie,
		sessionDuration: opts.SessionDuration,
	}
}

// RequireUser returns the authenticated user attached to ctx by AuthMiddleware.
func RequireUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

// AuthMiddleware only lets requests with a live session through; others are
// sent to the login page. Sessions past half their lifetime are extended.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		sessionID := auth.SessionID(cookie.Value)
		info, err := h.db.ValidateSessionWithInfo(r.Context(), sessionID)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				h.logger(r).Error("validate session", zap.Error(err))
			}
			h.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		// Extend sessions that are past half their lifetime.
		now := time.Now()
		if info.Session.ExpiresAt.Sub(now) < h.sessionDuration/2 {
			if err := h.db.RenewSession(r.Context(), sessionID, now.Add(h.sessionDuration)); err != nil {
				// Keep serving on the current session.
				h.logger(r).Warn("renew session", zap.Error(err))
			} else {
				h.setSessionCookie(w, cookie.Value)
			}
		}

		ctx := context.WithValue(r.Context(), UserContextKey, info.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// user returns the authenticated user or writes a redirect to /login.
func (h *Handlers) user(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := RequireUser(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
	}
	return user, ok
}

// LoginViewModel is rendered by login.html.
type LoginViewModel struct {
	Error    string
	Username string
}

// LoginForm shows the login page, or the dashboard to a signed-in user.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	// If already logged in, go to the dashboard
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := h.db.ValidateSession(r.Context(), auth.SessionID(cookie.Value)); err == nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
	}
	h.render(w, r, "login.html", LoginViewModel{})
}

// Login checks credentials and starts a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.render(w, r, "login.html", LoginViewModel{Error: "Invalid form submission"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		w.WriteHeader(http.StatusBadRequest)
		h.render(w, r, "login.html", LoginViewModel{Error: "Username and password are required", Username: username})
		return
	}

	user, err := h.db.GetUserByUsername(r.Context(), username)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.logger(r).Error("look up user", zap.Error(err))
	}
	if err != nil || !auth.CheckPassword(password, user.PasswordHash) {
		w.WriteHeader(http.StatusUnauthorized)
		h.render(w, r, "login.html", LoginViewModel{Error: "Invalid username or password", Username: username})
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		h.logger(r).Error("generate session token", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		h.render(w, r, "login.html", LoginViewModel{Error: "An error occurred. Please try again."})
		return
	}

	expiresAt := time.Now().Add(h.sessionDuration)
	if err := h.db.CreateSession(r.Context(), auth.SessionID(token), user.ID, expiresAt); err != nil {
		h.logger(r).Error("create session", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		h.render(w, r, "login.html", LoginViewModel{Error: "An error occurred. Please try again."})
		return
	}

	h.setSessionCookie(w, token)
	h.logger(r).Info("user logged in", zap.String(logger.FieldUserID, user.ID))
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout invalidates the current session. Requests without a live session
// get 401.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		http.Error(w, "Not logged in", http.StatusUnauthorized)
		return
	}

	sessionID := auth.SessionID(cookie.Value)
	if _, err := h.db.ValidateSession(r.Context(), sessionID); err != nil {
		h.clearSessionCookie(w)
		http.Error(w, "Not logged in", http.StatusUnauthorized)
		return
	}

	if err := h.db.DeleteSession(r.Context(), sessionID); err != nil {
		h.logger(r).Error("delete session", zap.Error(err))
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
