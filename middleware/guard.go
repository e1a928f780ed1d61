package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	contactAuth "github.com/MrEthical07/contactAuth"
)

// PrincipalResolver resolves an access token to the principal it names.
// *contactAuth.Engine satisfies it.
type PrincipalResolver interface {
	CurrentPrincipal(ctx context.Context, accessToken string) (contactAuth.PrincipalSnapshot, error)
}

type principalContextKey struct{}

// PrincipalFromContext returns the snapshot stored by Guard.
func PrincipalFromContext(ctx context.Context) (contactAuth.PrincipalSnapshot, bool) {
	p, ok := ctx.Value(principalContextKey{}).(contactAuth.PrincipalSnapshot)
	return p, ok
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p contactAuth.PrincipalSnapshot) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// Guard rejects requests without a valid bearer access token. Token and
// principal failures answer 401; infrastructure failures answer 503 so that
// an outage is never reported as bad credentials.
func Guard(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil {
				writeDetail(w, http.StatusServiceUnavailable, "Service unavailable")
				return
			}

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, "Not authenticated")
				return
			}

			p, err := resolver.CurrentPrincipal(r.Context(), token)
			if err != nil {
				if contactAuth.KindOf(err) == contactAuth.KindInfrastructure {
					writeDetail(w, http.StatusServiceUnavailable, "Service unavailable")
					return
				}
				unauthorized(w, "Could not validate credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detail)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
