package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	contactAuth "github.com/MrEthical07/contactAuth"
)

type detailBody struct {
	Detail string `json:"detail"`
}

// unauthorizedDetails keeps the login messages distinct; every token
// failure shares one message.
var unauthorizedDetails = []struct {
	err    error
	detail string
}{
	{contactAuth.ErrInvalidEmail, "Invalid email"},
	{contactAuth.ErrEmailNotConfirmed, "Email not confirmed"},
	{contactAuth.ErrInvalidPassword, "Invalid password"},
	{contactAuth.ErrRefreshReuse, "Invalid refresh token"},
}

// badRequestDetails never echo the wrapped error, which can carry decoder
// or hasher text.
var badRequestDetails = []struct {
	err    error
	detail string
}{
	{contactAuth.ErrVerification, "Verification error"},
	{contactAuth.ErrInvalidAvatar, "Invalid avatar"},
	{contactAuth.ErrInvalidSignUp, "Invalid sign-up data"},
	{contactAuth.ErrBadRequest, "Malformed request"},
}

// statusFor returns the status and client-facing detail for an Engine error.
func statusFor(err error) (int, string) {
	switch contactAuth.KindOf(err) {
	case contactAuth.KindConflict:
		return http.StatusConflict, "Account already exists"
	case contactAuth.KindUnauthorized:
		for _, d := range unauthorizedDetails {
			if errors.Is(err, d.err) {
				return http.StatusUnauthorized, d.detail
			}
		}
		return http.StatusUnauthorized, "Could not validate credentials"
	case contactAuth.KindBadRequest:
		for _, d := range badRequestDetails {
			if errors.Is(err, d.err) {
				return http.StatusBadRequest, d.detail
			}
		}
		return http.StatusBadRequest, "Bad request"
	case contactAuth.KindRateLimited:
		if errors.Is(err, contactAuth.ErrLoginRateLimited) {
			return http.StatusTooManyRequests, "Too many login attempts. Try again later."
		}
		return http.StatusTooManyRequests, "Too many requests. Try again later."
	case contactAuth.KindInfrastructure:
		if errors.Is(err, contactAuth.ErrStoreUnavailable) ||
			errors.Is(err, contactAuth.ErrCacheUnavailable) ||
			errors.Is(err, contactAuth.ErrEngineNotReady) {
			return http.StatusServiceUnavailable, "Service unavailable"
		}
		return http.StatusInternalServerError, "Internal server error"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, detailBody{Detail: detail})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailBody{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
