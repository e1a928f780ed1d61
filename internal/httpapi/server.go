package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	contactAuth "github.com/MrEthical07/contactAuth"
	"github.com/MrEthical07/contactAuth/middleware"
)

// Service is the Engine surface the routes call. *contactAuth.Engine
// satisfies it.
type Service interface {
	SignUp(ctx context.Context, req contactAuth.SignUpRequest) (contactAuth.Principal, error)
	Login(ctx context.Context, email, password string) (contactAuth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (contactAuth.TokenPair, error)
	ConfirmEmail(ctx context.Context, token string) (contactAuth.ConfirmResult, error)
	RequestEmail(ctx context.Context, email string) (contactAuth.RequestEmailResult, error)
	UpdateAvatar(ctx context.Context, email string, body io.Reader, size int64, contentType string) (contactAuth.Principal, error)
	CurrentPrincipal(ctx context.Context, accessToken string) (contactAuth.PrincipalSnapshot, error)
	Health(ctx context.Context) error
}

type Deps struct {
	Service Service
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Limiter throttles every route per client IP when set.
	Limiter *IPLimiter
	Logger  *slog.Logger
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

type server struct {
	svc    Service
	logger *slog.Logger
}

// NewRouter builds the full route tree.
//
// Middleware order: RequestID → RealIP (optional) → Recoverer → client IP →
// request log → per-IP limiter. /healthz and /metrics sit outside the limiter.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &server{svc: deps.Service, logger: logger}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(withClientIP)

	r.Get("/healthz", s.health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(requestLog(logger))
		if deps.Limiter != nil {
			r.Use(deps.Limiter.middleware(s))
		}

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/signup", s.signUp)
			r.Post("/login", s.login)
			r.Get("/refresh_token", s.refresh)
			r.Get("/confirmed_email/{token}", s.confirmEmail)
			r.Post("/request_email", s.requestEmail)
		})

		r.Route("/api/users", func(r chi.Router) {
			r.Use(middleware.Guard(deps.Service))
			r.Get("/me", s.me)
			r.Get("/me/", s.me)
			r.Patch("/avatar", s.updateAvatar)
		})
	})

	return r
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := contactAuth.WithClientIP(r.Context(), clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http_request",
				slog.String("request_id", chimw.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
			)
		})
	}
}
