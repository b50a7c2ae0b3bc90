package jwt

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"socialfeed/internal/pkg/logx"
)

type contextKey string

const (
	// ContextSessionPayloadKey stores the *Payload of the current request.
	ContextSessionPayloadKey contextKey = "session_payload"

	// CookieName is the cookie carrying the session token for browser clients.
	CookieName = "sf_session"

	// TokenHeader echoes a freshly minted token for non-browser clients.
	TokenHeader = "X-Session-Token"
)

// SessionMiddleware resolves the session token from the Authorization header, the
// session cookie or the "token" query parameter, in that order. Requests without a
// valid token get a new anonymous session: a token is minted, set as a cookie and
// echoed in the X-Session-Token header. The payload is always present downstream.
func SessionMiddleware(secretKey string, secureCookie bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenString := extractToken(r); tokenString != "" {
				payload, err := ParseToken(tokenString, secretKey)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithPayload(r.Context(), payload)))
					return
				}
				logx.Debug("Invalid or expired session token, starting a new session", "error", err)
			}

			payload := &Payload{SessionID: uuid.NewString()}
			tokenString, err := GenerateToken(payload, secretKey, SessionExpiration)
			if err != nil {
				logx.Error(err, "Failed to mint session token")
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    tokenString,
				Path:     "/",
				MaxAge:   int(SessionExpiration.Seconds()),
				HttpOnly: true,
				Secure:   secureCookie,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(TokenHeader, tokenString)

			next.ServeHTTP(w, r.WithContext(WithPayload(r.Context(), payload)))
		})
	}
}

func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return r.URL.Query().Get("token")
}

// WithPayload returns a copy of ctx carrying payload.
func WithPayload(ctx context.Context, payload *Payload) context.Context {
	return context.WithValue(ctx, ContextSessionPayloadKey, payload)
}

// GetPayloadFromContext returns the session payload, or nil outside SessionMiddleware.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextSessionPayloadKey).(*Payload)
	if !ok {
		return nil
	}
	return payload
}
