package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	contactAuth "github.com/MrEthical07/contactAuth"
	"github.com/MrEthical07/contactAuth/middleware"
)

const maxJSONBody = 64 << 10

type signUpBody struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Avatar   *string `json:"avatar,omitempty"`
}

type userBody struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Avatar    string    `json:"avatar"`
}

type signUpResponse struct {
	User   userBody `json:"user"`
	Detail string   `json:"detail"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func userFromPrincipal(p contactAuth.Principal) userBody {
	return userFromSnapshot(p.Snapshot())
}

func userFromSnapshot(s contactAuth.PrincipalSnapshot) userBody {
	return userBody{
		ID:        s.ID,
		Username:  s.DisplayName,
		Email:     s.Email,
		CreatedAt: s.CreatedAt,
		Avatar:    s.Avatar,
	}
}

func tokens(p contactAuth.TokenPair) tokenResponse {
	return tokenResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, TokenType: "bearer"}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", contactAuth.ErrBadRequest, err)
	}
	return nil
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Health(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /api/auth/signup
func (s *server) signUp(w http.ResponseWriter, r *http.Request) {
	var body signUpBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.svc.SignUp(r.Context(), contactAuth.SignUpRequest{
		Email:       body.Email,
		DisplayName: body.Username,
		Password:    body.Password,
		Avatar:      body.Avatar,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, signUpResponse{
		User:   userFromPrincipal(p),
		Detail: "User successfully created. Check your email for confirmation.",
	})
}

// POST /api/auth/login accepts an OAuth2 password form (username, password)
// or a JSON body with email and password.
func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var email, password string

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var body struct {
			Email    string `json:"email"`
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := decodeJSON(w, r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}
		email, password = body.Email, body.Password
		if email == "" {
			email = body.Username
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseForm(); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %v", contactAuth.ErrBadRequest, err))
			return
		}
		email, password = r.PostForm.Get("username"), r.PostForm.Get("password")
	}

	pair, err := s.svc.Login(r.Context(), email, password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens(pair))
}

// GET /api/auth/refresh_token with the refresh token as bearer credential.
func (s *server) refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		s.writeError(w, r, contactAuth.ErrUnauthorized)
		return
	}

	pair, err := s.svc.Refresh(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens(pair))
}

// GET /api/auth/confirmed_email/{token}
func (s *server) confirmEmail(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.ConfirmEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.AlreadyConfirmed {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Your email is already confirmed"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Email confirmed"})
}

// POST /api/auth/request_email
func (s *server) requestEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.RequestEmail(r.Context(), body.Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.AlreadyConfirmed {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Your email is already confirmed"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Check your email for confirmation."})
}

// GET /api/users/me
func (s *server) me(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		s.writeError(w, r, contactAuth.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, userFromSnapshot(p))
}

// PATCH /api/users/avatar takes a multipart form with a "file" part.
func (s *server) updateAvatar(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		s.writeError(w, r, contactAuth.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, contactAuth.MaxAvatarBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", contactAuth.ErrInvalidAvatar, err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", contactAuth.ErrInvalidAvatar, err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		sniff := make([]byte, 512)
		n, _ := io.ReadFull(file, sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %v", contactAuth.ErrInvalidAvatar, err))
			return
		}
	}

	updated, err := s.svc.UpdateAvatar(r.Context(), p.Email, file, header.Size, contentType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userFromPrincipal(updated))
}
