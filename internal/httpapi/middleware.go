package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/visitgate/visitgate/internal/auth"
)

func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now().UTC()
		next.ServeHTTP(w, r)
		logger.Printf("%s %s from=%s dur=%s", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}

type claimsKey struct{}

// auth wraps a handler with bearer-token authentication.  The verified
// claims land in the request context for handlers that need the caller's
// identity.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token", "authorization required")
			return
		}
		claims, err := s.tokens.Parse(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token", "token is invalid or expired")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next(w, r.WithContext(ctx))
	}
}

// callerClaims returns the authenticated caller's claims.  Only valid
// inside handlers wrapped with auth.
func callerClaims(r *http.Request) auth.Claims {
	claims, _ := r.Context().Value(claimsKey{}).(auth.Claims)
	return claims
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}
