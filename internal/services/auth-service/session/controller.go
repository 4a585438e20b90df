package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/teampulse/auth-service/internal/domain/auth"
	"github.com/teampulse/auth-service/internal/domain/user"
)

// Controller is the HTTP boundary: request-shape validation, status
// mapping and nothing else. All semantics live in the Usecase.
type Controller struct {
	log *zap.Logger
	uc  *Usecase
}

func NewController(log *zap.Logger, uc *Usecase) *Controller {
	return &Controller{log: log, uc: uc}
}

func (c *Controller) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", c.handleRegister)
	mux.HandleFunc("POST /api/auth/login", c.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", c.handleRefresh)
	mux.HandleFunc("POST /api/auth/logout", c.requireAuth(c.handleLogout))
	mux.HandleFunc("GET /api/auth/me", c.requireAuth(c.handleMe))
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authData struct {
	User   *user.User `json:"user"`
	Tokens TokenPair  `json:"tokens"`
}

func (c *Controller) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if !validEmail(req.Email) || len(req.Password) < 8 || len(req.Password) > 128 ||
		req.Name == "" || len(req.Name) > 255 {
		c.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid registration payload")
		return
	}

	u, tokens, err := c.uc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		c.mapError(w, err)
		return
	}
	c.writeData(w, http.StatusCreated, authData{User: u, Tokens: tokens})
}

func (c *Controller) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if !validEmail(req.Email) || req.Password == "" {
		c.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "email and password are required")
		return
	}

	u, tokens, err := c.uc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		c.mapError(w, err)
		return
	}
	c.writeData(w, http.StatusOK, authData{User: u, Tokens: tokens})
}

func (c *Controller) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.RefreshToken == "" {
		c.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "refreshToken is required")
		return
	}

	u, tokens, err := c.uc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		c.mapError(w, err)
		return
	}
	c.writeData(w, http.StatusOK, authData{User: u, Tokens: tokens})
}

func (c *Controller) handleLogout(w http.ResponseWriter, r *http.Request) {
	payload, _ := PayloadFromCtx(r.Context())
	if err := c.uc.Logout(r.Context(), payload.UserID); err != nil {
		c.mapError(w, err)
		return
	}
	c.writeData(w, http.StatusOK, nil)
}

func (c *Controller) handleMe(w http.ResponseWriter, r *http.Request) {
	payload, _ := PayloadFromCtx(r.Context())
	u, err := c.uc.GetProfile(r.Context(), payload.UserID)
	if err != nil {
		c.mapError(w, err)
		return
	}
	c.writeData(w, http.StatusOK, u)
}

type ctxKey int

const payloadKey ctxKey = 1

func PayloadFromCtx(ctx context.Context) (auth.AccessPayload, bool) {
	p, ok := ctx.Value(payloadKey).(auth.AccessPayload)
	return p, ok
}

func (c *Controller) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearer(r)
		if token == "" {
			c.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header")
			return
		}
		payload, err := c.uc.ParseAccess(token)
		if err != nil {
			c.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired access token")
			return
		}
		ctx := context.WithValue(r.Context(), payloadKey, payload)
		next(w, r.WithContext(ctx))
	}
}

func bearer(r *http.Request) string {
	v := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(v), "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return ""
}

func validEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && len(s) <= 255
}

// mapError keeps the unauthorized surface uniform: reuse detection and
// expiry look identical to a plain invalid token from the outside. The
// distinct causes were already logged where they occurred.
func (c *Controller) mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrWeakPassword):
		c.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrEmailExists):
		c.writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, ErrAccountLocked):
		c.writeError(w, http.StatusUnauthorized, "ACCOUNT_LOCKED", "account temporarily locked, try again later")
	case errors.Is(err, ErrInvalidCredentials):
		c.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password")
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenReuseDetected):
		c.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired refresh token")
	case errors.Is(err, ErrUserNotFound):
		c.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrDependencyUnavailable):
		c.writeError(w, http.StatusServiceUnavailable, "DEPENDENCY_UNAVAILABLE", "service temporarily unavailable")
	default:
		c.log.Error("unhandled error", zap.Error(err))
		c.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Controller) writeData(w http.ResponseWriter, status int, data interface{}) {
	c.writeJSON(w, status, envelope{Success: true, Data: data})
}

func (c *Controller) writeError(w http.ResponseWriter, status int, code, message string) {
	c.writeJSON(w, status, envelope{Success: false, Error: &apiError{Code: code, Message: message}})
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.log.Error("write response", zap.Error(err))
	}
}
