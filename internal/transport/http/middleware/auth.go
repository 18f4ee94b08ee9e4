package middleware

import (
	"context"
	"net/http"
	"strings"

	"evaltool/internal/domain/auth"
	"evaltool/internal/transport/http/api"
)

// RequireAuth rejects requests without a valid bearer token. An empty secret
// disables the check.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", GetRequestID(r.Context()))
				return
			}
			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "invalid token", GetRequestID(r.Context()))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeySubject, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(ctxKeySubject).(string)
	return subject, ok && subject != ""
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}
