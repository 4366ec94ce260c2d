package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/username/strperformance/backend/src/logger"
	"github.com/username/strperformance/backend/src/security"
	"github.com/username/strperformance/backend/src/utils"
	"golang.org/x/time/rate"
)

type contextKey string

const (
	requestIDContextKey contextKey = "requestID"
	sessionIDContextKey contextKey = "sessionID"

	SessionCookieName = "str_session"
)

// ContextualLoggerMiddleware gives every request an id and a logger carrying it.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionMiddleware resolves the roster session from the session cookie,
// starting a new session when the cookie is missing, expired or forged.
func SessionMiddleware(sessions *security.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxLogger := logger.FromContext(r.Context())

			var sessionID string
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				id, vErr := sessions.Validate(cookie.Value)
				if vErr != nil {
					ctxLogger.Debug("Session cookie rejected, starting a new session", "error", vErr)
				} else {
					sessionID = id
				}
			}

			if sessionID == "" {
				token, id, err := sessions.Issue()
				if err != nil {
					ctxLogger.Error("Failed to issue session", "error", err)
					utils.SendJSONError(w, "Failed to start session", http.StatusInternalServerError)
					return
				}
				sessionID = id
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    token,
					Path:     "/",
					SameSite: http.SameSiteLaxMode,
					HttpOnly: true,
					Secure:   r.TLS != nil,
					MaxAge:   int(sessions.Expiry().Seconds()),
				})
				ctxLogger.Info("New session started", "sessionID", sessionID)
			}

			enrichedLogger := ctxLogger.With(slog.String("sessionID", sessionID))
			ctx := logger.ToContext(r.Context(), enrichedLogger)
			ctx = context.WithValue(ctx, sessionIDContextKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionIDFromContext returns the id set by SessionMiddleware.
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDContextKey).(string)
	return id, ok && id != ""
}

// RateLimitMiddleware rejects requests beyond the shared limiter's budget.
func RateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
				utils.SendJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
