package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/tokencore/go-token-service/auth"
)

const contentTypeJSON = "application/json; charset=utf-8"

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// RegisterHandler creates a new user account
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "invalid request body"})
			return
		}
		if err := auth.ValidateRegistration(req.Email, req.Username, req.Password); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
			return
		}

		user, err := s.auth.Register(r.Context(), req.Email, req.Username, req.Password)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

// LoginHandler verifies credentials and returns an access/refresh token pair
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "invalid request body"})
			return
		}
		if err := auth.ValidateLogin(req.Email, req.Password); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
			return
		}

		pair, err := s.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

// RefreshHandler rotates a refresh token into a new token pair
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "refresh_token is required"})
			return
		}

		pair, err := s.auth.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

// MeHandler returns the authenticated user's public record. The auth gate has
// already verified the token and attached the user to the context.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r.Context())
		if user == nil {
			s.unauthorized(w, "Could not validate credentials")
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// LogoutHandler revokes a refresh token. Idempotent: logging out an unknown
// or already-consumed token still reports success.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		if err := s.auth.Logout(r.Context(), req.RefreshToken); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully logged out"})
	}
}

// HealthHandler reports liveness; a public path, never gated.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// writeServiceError maps auth service errors to HTTP responses. The mapping
// is the only place error kinds meet status codes; handlers stay free of
// status logic and internal details never reach the client.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrDuplicateEmail):
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Email already registered"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.unauthorized(w, "Incorrect email or password")
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		s.unauthorized(w, "Invalid refresh token")
	case errors.Is(err, auth.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "User not found"})
	default:
		log.Error().Err(err).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
