// Package rest serves the auth endpoints over JSON/HTTP:
//
//	POST /api/auth/login/          {username, password} -> {access, refresh, user}
//	GET  /api/auth/me/             Authorization: Bearer <access> -> user
//	POST /api/auth/token/refresh/  {refresh} -> {access, refresh?}
//	GET  /api/health/              -> {status: "OK"}
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/atolye/internal/common"
	"github.com/dmitrijs2005/atolye/internal/logging"
	"github.com/dmitrijs2005/atolye/internal/server/models"
	"github.com/dmitrijs2005/atolye/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBody bounds request bodies.
const maxBody = 1 << 16

// UserService is the part of services.UserService the HTTP front end uses.
type UserService interface {
	Login(ctx context.Context, username string, password []byte) (*services.LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

type profile struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name,omitempty"`
	WorkshopName string `json:"workshop_name,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access  string  `json:"access"`
	Refresh string  `json:"refresh"`
	User    profile `json:"user"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type handler struct {
	users   UserService
	logger  logging.Logger
	limiter *LoginLimiter
}

// NewHandler returns the API router. A nil limiter disables login throttling.
func NewHandler(us UserService, l logging.Logger, limiter *LoginLimiter) http.Handler {
	h := &handler{users: us, logger: l, limiter: limiter}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.withLogging)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login/", h.login)
			r.Get("/me/", h.me)
			r.Post("/token/refresh/", h.refresh)
		})
		r.Get("/health/", h.health)
	})

	return r
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	if h.limiter != nil && !h.limiter.Allow(req.Username) {
		h.logger.Warn(r.Context(), "login rate limit exceeded", "username", req.Username)
		h.limiter.writeRateLimited(w)
		return
	}

	res, err := h.users.Login(r.Context(), req.Username, []byte(req.Password))
	if err != nil {
		h.logger.Info(r.Context(), "login failed", "username", req.Username, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Access:  res.AccessToken,
		Refresh: res.RefreshToken,
		User:    toProfile(res.User),
	})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	access, ok := bearer(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "missing bearer token"})
		return
	}

	user, err := h.users.Authenticate(r.Context(), access)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfile(user))
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}

	pair, err := h.users.RefreshToken(r.Context(), req.Refresh)
	if err != nil {
		h.logger.Info(r.Context(), "refresh rejected", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{Access: pair.AccessToken, Refresh: pair.RefreshToken})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (h *handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		h.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Header.Get(common.RequestIDHeaderName),
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func bearer(r *http.Request) (string, bool) {
	scheme, tok, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tok) == "" {
		return "", false
	}
	return strings.TrimSpace(tok), true
}

func toProfile(u *models.User) profile {
	return profile{ID: u.ID, Username: u.UserName, Name: u.Name, WorkshopName: u.WorkshopName}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON body"})
		return false
	}
	return true
}

// writeError maps service errors to status codes: auth failures are 401,
// blank input 400, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrorUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: err.Error()})
	case errors.Is(err, services.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
