package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/livepoll/livepoll/internal/core/domain"
)

type contextKey string

// SessionKey carries the authenticated domain.Session in the request
// context.
const SessionKey contextKey = "session"

// SessionFromContext returns the caller's session, if authenticated.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	session, ok := ctx.Value(SessionKey).(domain.Session)
	return session, ok
}

// SessionMiddleware resolves the identity provider's access token (cookie or
// bearer header) into a domain.Session. With required=true, requests without
// a valid session are rejected; otherwise they proceed anonymously.
func SessionMiddleware(secret []byte, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := resolveSession(r, secret)
			if err != nil {
				if required {
					writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid access token")
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), SessionKey, session)))
		})
	}
}

func resolveSession(r *http.Request, secret []byte) (domain.Session, error) {
	tokenString := ""
	if cookie, err := r.Cookie("access_token"); err == nil {
		tokenString = cookie.Value
	}
	if tokenString == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			tokenString = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if tokenString == "" {
		return domain.Session{}, fmt.Errorf("no access token")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Session{}, fmt.Errorf("invalid access token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Session{}, fmt.Errorf("unexpected claims type")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return domain.Session{}, fmt.Errorf("missing subject claim: %w", err)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return domain.Session{}, fmt.Errorf("invalid subject claim: %w", err)
	}
	email, _ := claims["email"].(string)

	return domain.Session{UserID: userID, Email: email}, nil
}
