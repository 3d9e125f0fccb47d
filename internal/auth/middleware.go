package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const (
	UserIDKey  ctxKey = "userID"
	OrgIDKey   ctxKey = "organizationID"
	IsAdminKey ctxKey = "isAdmin"
)

// Middleware resolves the Bearer token to (userID, organizationID, isAdmin)
// and injects them into the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		h := r.Header.Get("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		raw := strings.TrimPrefix(h, "Bearer ")
		claims, err := ParseAndValidate(raw)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, OrgIDKey, claims.OrganizationID)
		ctx = context.WithValue(ctx, IsAdminKey, claims.IsAdmin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin guards admin-only routes. Must run after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ok, _ := r.Context().Value(IsAdminKey).(bool); !ok {
			http.Error(w, "forbidden (admin only)", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserID pulls the authenticated user id from the context.
func UserID(r *http.Request) uint {
	id, _ := r.Context().Value(UserIDKey).(uint)
	return id
}

// OrgID pulls the authenticated organization id from the context.
func OrgID(r *http.Request) uint {
	id, _ := r.Context().Value(OrgIDKey).(uint)
	return id
}

// IsAdmin reports whether the authenticated user is an organization admin.
func IsAdmin(r *http.Request) bool {
	ok, _ := r.Context().Value(IsAdminKey).(bool)
	return ok
}
