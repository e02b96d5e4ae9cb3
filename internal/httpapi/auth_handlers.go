package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"libris.dev/internal/audit"
	"libris.dev/internal/auth"
)

type signupRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required"`
}

type signupResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if fields := validateStruct(&req); len(fields) > 0 {
		writeValidationError(w, r, fields)
		return
	}

	if err := a.auth.Register(r.Context(), req.Username, req.Password, auth.Role(req.Role)); err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.signup", map[string]any{
		"username": req.Username,
		"role":     req.Role,
	})

	writeJSON(w, http.StatusOK, signupResponse{
		Message:  "User registered successfully",
		Username: req.Username,
	})
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	var roleFilter *auth.Role
	if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
		role, err := auth.ParseRole(raw)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		roleFilter = &role
	}

	users, err := a.auth.ListUsers(r.Context(), roleFilter)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleToken accepts the username/password as form fields, mirroring the
// OAuth2 password grant shape, and responds with a bearer access token.
func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid form body")
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	token, expiresAt, err := a.auth.Login(r.Context(), username, password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"username":   username,
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func writeValidationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	payload := map[string]any{
		"error":  "validation failed",
		"fields": fields,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, http.StatusBadRequest, payload)
}

func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrDuplicateUsername):
		writeError(w, r, http.StatusBadRequest, "username already exists")
	case errors.Is(err, auth.ErrInvalidRole):
		writeError(w, r, http.StatusBadRequest, "invalid role, choose LIBRARIAN or MEMBER")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusBadRequest, "incorrect username or password")
	case errors.Is(err, auth.ErrUnauthenticated):
		unauthorized(w, r, "could not validate credentials")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "librarian role required")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
