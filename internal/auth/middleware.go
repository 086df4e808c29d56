package auth

import (
	"net/http"
	"strings"

	"github.com/orderdesk/orderdesk/internal/platform/httpx"
)

// TokenFromRequest extracts the bearer token from the auth-token cookie or
// the Authorization header, in that order.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// RequireAuth guards protected routes. A missing or expired token yields a
// 401 failure envelope and clears the cookie so clients stop replaying it.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		user, err := s.Authenticate(r.Context(), token)
		if err != nil {
			clearTokenCookie(w)
			httpx.Fail(w, http.StatusUnauthorized, "session expired")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

func clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
