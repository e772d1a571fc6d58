package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nerrad567/inkwell/internal/audit"
	"github.com/nerrad567/inkwell/internal/auth"
)

// credentialsRequest is the request body for POST /api/register and /api/login.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /api/login.
type loginResponse struct {
	Token string `json:"token"`
}

// handleRegister creates a user account.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.auth.Register(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrWeakPassword):
		writeValidationError(w, err.Error())
		return
	case errors.Is(err, auth.ErrUsernameExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, "username already exists")
		return
	default:
		s.logger.Error("registration failed", "error", err)
		writeInternalError(w, "failed to register user")
		return
	}

	userID := strconv.FormatInt(user.ID, 10)
	s.recordAudit(audit.ActionRegister, "user", userID, userID, map[string]any{"username": user.Username})

	writeJSON(w, http.StatusCreated, map[string]string{"status": statusSuccess})
}

// handleLogin exchanges credentials for a bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeUnauthorized(w, "invalid credentials")
		return
	case errors.Is(err, auth.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, ErrCodeTooManyRequest, "too many login attempts")
		return
	case errors.Is(err, auth.ErrTokenCreation):
		s.logger.Error("token creation failed", "error", err)
		writeInternalError(w, "failed to create token")
		return
	default:
		s.logger.Error("login failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}
