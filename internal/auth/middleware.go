package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

type contextKey string

const PrincipalKey contextKey = "principal"

// AuthInput carries the credentials huma handlers authorize with.
type AuthInput struct {
	Cookie        string `header:"Cookie"`
	APIKey        string `header:"X-API-KEY"`
	Authorization string `header:"Authorization"`
}

// FromContext returns the principal the session middleware attached.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	return p, ok
}

// WithPrincipal attaches p to ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// CookieValue extracts a named cookie from a raw Cookie header.
func CookieValue(header, name string) string {
	if header == "" {
		return ""
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return ""
	}
	for _, c := range cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func bearer(header string) string {
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// authenticate checks, in order, an API key, a bearer token and the
// session cookie.
func (h *AuthHandler) authenticate(ctx context.Context, in AuthInput) (Principal, time.Time, bool) {
	if in.APIKey != "" {
		if p, err := h.lookupAPIKey(ctx, in.APIKey); err == nil {
			return p, time.Time{}, true
		}
	}
	if token := bearer(in.Authorization); token != "" {
		if p, exp, err := h.parseToken(token); err == nil {
			return p, exp, true
		}
	}
	if token := CookieValue(in.Cookie, CookieName); token != "" {
		if p, exp, err := h.parseToken(token); err == nil {
			return p, exp, true
		}
	}
	return Principal{}, time.Time{}, false
}

// Session attaches the caller's principal to the request context when it
// presents valid credentials. It never rejects a request; handlers decide.
// Cookie sessions more than halfway through their lifetime are renewed.
func (h *AuthHandler) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in := AuthInput{
			Cookie:        r.Header.Get("Cookie"),
			APIKey:        r.Header.Get("X-API-KEY"),
			Authorization: r.Header.Get("Authorization"),
		}
		p, exp, ok := h.authenticate(r.Context(), in)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		// Sliding session: refresh token if it's more than halfway through its duration
		if !exp.IsZero() && time.Until(exp) < TokenDuration/2 {
			if newToken, err := h.GenerateToken(p.UserID, p.Role); err == nil {
				h.setSessionCookie(w, newToken)
			}
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireAdmin guards plain chi routes.
func (h *AuthHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized: No token found", http.StatusUnauthorized)
			return
		}
		if !p.IsAdmin() {
			http.Error(w, "Forbidden: admin only", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Authorize returns the caller for a huma handler, from the session
// middleware or, failing that, the handler's own credential headers.
func (h *AuthHandler) Authorize(ctx context.Context, in AuthInput) (Principal, error) {
	if p, ok := FromContext(ctx); ok {
		return p, nil
	}
	if p, _, ok := h.authenticate(ctx, in); ok {
		return p, nil
	}
	return Principal{}, huma.Error401Unauthorized("Unauthorized: No valid token found")
}

// AuthorizeAdmin is Authorize restricted to administrators.
func (h *AuthHandler) AuthorizeAdmin(ctx context.Context, in AuthInput) (Principal, error) {
	p, err := h.Authorize(ctx, in)
	if err != nil {
		return Principal{}, err
	}
	if !p.IsAdmin() {
		return Principal{}, huma.Error403Forbidden("Access denied: admin only")
	}
	return p, nil
}
