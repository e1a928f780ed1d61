package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contactAuth "github.com/MrEthical07/contactAuth"
	"github.com/MrEthical07/contactAuth/internal/store/memory"
)

type captureNotifier struct {
	tokens chan string
}

func (n *captureNotifier) SendVerificationEmail(_ context.Context, _, _, token string) error {
	n.tokens <- token
	return nil
}

type memoryAvatars struct {
	keys []string
}

func (m *memoryAvatars) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	m.keys = append(m.keys, key)
	return "https://cdn.test/" + key, nil
}

type apiHarness struct {
	handler  http.Handler
	notifier *captureNotifier
	avatars  *memoryAvatars
	mr       *miniredis.Miniredis
}

func newHarness(t *testing.T) *apiHarness {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	h := &apiHarness{
		notifier: &captureNotifier{tokens: make(chan string, 8)},
		avatars:  &memoryAvatars{},
		mr:       mr,
	}

	cfg := contactAuth.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	engine, err := contactAuth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithPrincipalStore(memory.New()).
		WithNotifier(h.notifier).
		WithAvatarStorage(h.avatars).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
	})

	h.handler = NewRouter(Deps{
		Service: engine,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("metrics")) }),
	})
	return h
}

func (h *apiHarness) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *apiHarness) token(t *testing.T) string {
	t.Helper()
	select {
	case tok := <-h.notifier.tokens:
		return tok
	case <-time.After(2 * time.Second):
		t.Fatal("no verification email")
		return ""
	}
}

func jsonRequest(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func loginForm(email, password string) *http.Request {
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAuthLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "secret1",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[signUpResponse](t, rec)
	assert.Equal(t, "a@x.com", created.User.Email)
	assert.Equal(t, "alice", created.User.Username)
	assert.Contains(t, created.User.Avatar, "gravatar.com")
	assert.NotContains(t, rec.Body.String(), "password")

	rec = h.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "secret1",
	}))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Account already exists", decode[detailBody](t, rec).Detail)

	rec = h.do(t, loginForm("a@x.com", "secret1"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Email not confirmed", decode[detailBody](t, rec).Detail)

	verify := h.token(t)
	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/api/auth/confirmed_email/"+verify, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email confirmed", decode[messageResponse](t, rec).Message)

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/api/auth/confirmed_email/"+verify, nil))
	assert.Equal(t, "Your email is already confirmed", decode[messageResponse](t, rec).Message)

	rec = h.do(t, loginForm("a@x.com", "secret1"))
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[tokenResponse](t, rec)
	assert.Equal(t, "bearer", first.TokenType)

	rec = h.do(t, bearer(httptest.NewRequest(http.MethodGet, "/api/users/me", nil), first.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.com", decode[userBody](t, rec).Email)

	rec = h.do(t, bearer(httptest.NewRequest(http.MethodGet, "/api/auth/refresh_token", nil), first.RefreshToken))
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[tokenResponse](t, rec)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	rec = h.do(t, bearer(httptest.NewRequest(http.MethodGet, "/api/auth/refresh_token", nil), first.RefreshToken))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid refresh token", decode[detailBody](t, rec).Detail)
}

func TestLoginAcceptsJSON(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "nobody@x.com", "password": "secret1",
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email", decode[detailBody](t, rec).Detail)
}

func TestSignUpRejectsBadBodies(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader("{"))
	rec := h.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Malformed request", decode[detailBody](t, rec).Detail)

	rec = h.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "a", "email": "a@x.com", "password": "secret1",
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid sign-up data", decode[detailBody](t, rec).Detail)
}

func TestConfirmWithGarbageToken(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/api/auth/confirmed_email/garbage", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Could not validate credentials", decode[detailBody](t, rec).Detail)
}

func TestRequestEmail(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, jsonRequest(http.MethodPost, "/api/auth/request_email", map[string]string{"email": "ghost@x.com"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Check your email for confirmation.", decode[messageResponse](t, rec).Message)

	rec = h.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "bob", "email": "b@x.com", "password": "secret1",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	_ = h.token(t)

	rec = h.do(t, jsonRequest(http.MethodPost, "/api/auth/request_email", map[string]string{"email": "b@x.com"}))
	require.Equal(t, http.StatusOK, rec.Code)
	verify := h.token(t)

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/api/auth/confirmed_email/"+verify, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, jsonRequest(http.MethodPost, "/api/auth/request_email", map[string]string{"email": "b@x.com"}))
	assert.Equal(t, "Your email is already confirmed", decode[messageResponse](t, rec).Message)
}

func TestUsersRoutesRequireBearer(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = h.do(t, bearer(httptest.NewRequest(http.MethodGet, "/api/users/me", nil), "not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateAvatar(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "carol", "email": "c@x.com", "password": "secret1",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	userID := decode[signUpResponse](t, rec).User.ID
	h.do(t, httptest.NewRequest(http.MethodGet, "/api/auth/confirmed_email/"+h.token(t), nil))
	rec = h.do(t, loginForm("c@x.com", "secret1"))
	require.Equal(t, http.StatusOK, rec.Code)
	access := decode[tokenResponse](t, rec).AccessToken

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\n0000000000"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPatch, "/api/users/avatar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = h.do(t, bearer(req, access))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	key := fmt.Sprintf("avatars/%d", userID)
	assert.Equal(t, []string{key}, h.avatars.keys)
	assert.Equal(t, "https://cdn.test/"+key, decode[userBody](t, rec).Avatar)

	rec = h.do(t, bearer(httptest.NewRequest(http.MethodGet, "/api/users/me", nil), access))
	assert.Equal(t, "https://cdn.test/"+key, decode[userBody](t, rec).Avatar)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "metrics", rec.Body.String())

	h.mr.Close()
	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type failingService struct {
	Service
	err error
}

func (f failingService) Login(context.Context, string, string) (contactAuth.TokenPair, error) {
	return contactAuth.TokenPair{}, f.err
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{contactAuth.ErrInvalidPassword, http.StatusUnauthorized},
		{contactAuth.ErrLoginRateLimited, http.StatusTooManyRequests},
		{fmt.Errorf("%w: dial tcp", contactAuth.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: dial tcp", contactAuth.ErrCacheUnavailable), http.StatusServiceUnavailable},
		{contactAuth.ErrTokenIssue, http.StatusInternalServerError},
		{errors.New("surprise"), http.StatusInternalServerError},
		{fmt.Errorf("%w: dial tcp", contactAuth.ErrBadRequest), http.StatusBadRequest},
		{fmt.Errorf("%w: dial tcp", contactAuth.ErrInvalidSignUp), http.StatusBadRequest},
		{fmt.Errorf("%w: %w: dial tcp", contactAuth.ErrInvalidSignUp, contactAuth.ErrInvalidAvatar), http.StatusBadRequest},
		{fmt.Errorf("%w: dial tcp", contactAuth.ErrTokenInvalid), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			handler := NewRouter(Deps{Service: failingService{err: tc.err}})
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, loginForm("a@x.com", "pw"))
			assert.Equal(t, tc.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "dial tcp")
		})
	}
}

func TestIPLimiterRejectsBurst(t *testing.T) {
	limiter := NewIPLimiter(0.001, 2, time.Minute)
	defer limiter.Stop()

	handler := NewRouter(Deps{
		Service: failingService{err: contactAuth.ErrInvalidEmail},
		Limiter: limiter,
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginForm("a@x.com", "pw"))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, limiter.Len())
}

func TestIPLimiterSweepsIdleEntries(t *testing.T) {
	limiter := NewIPLimiter(1, 1, time.Hour)
	defer limiter.Stop()

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.2")
	require.Equal(t, 2, limiter.Len())

	limiter.sweep(time.Now().Add(2 * time.Hour))
	assert.Zero(t, limiter.Len())
}
