package adapthttp

import (
	"context"
	"errors"
	"net/http"

	"fareclaim/internal/app"
	"fareclaim/internal/domain"
	applog "fareclaim/internal/log"
)

type contextKey string

const userContextKey contextKey = "user"

const sessionCookie = "session"

// authMiddleware validates session tokens and forward auth headers.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := applog.FromContext(r.Context())

		// Check for Authelia forward auth header first
		if s.trustForwardAuth {
			if remoteUser := r.Header.Get("Remote-User"); remoteUser != "" {
				user, err := s.authSvc.ValidateForwardAuth(r.Context(), remoteUser)
				if err != nil {
					logger.Error("forward auth failed", applog.FieldError, err)
					writeError(w, http.StatusInternalServerError, errInternal)
					return
				}
				next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
				return
			}
		}

		// Fall back to cookie-based session
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errUnauthorized)
			return
		}

		user, err := s.authSvc.ValidateSession(r.Context(), cookie.Value, r.UserAgent())
		if errors.Is(err, app.ErrSessionNotFound) || errors.Is(err, app.ErrSessionExpired) || errors.Is(err, app.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, errUnauthorized)
			return
		}
		if err != nil {
			logger.Error("session validation failed", applog.FieldError, err)
			writeError(w, http.StatusInternalServerError, errInternal)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// withUser stores the authenticated user and tags the request logger with
// the user id.
func withUser(ctx context.Context, user *domain.User) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, user.ID))
}

// currentUser returns the user placed in ctx by authMiddleware.
func currentUser(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userContextKey).(*domain.User)
	return u
}
