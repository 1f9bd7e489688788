package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/smartagrinode/agrinode/pkg/database"
	"github.com/smartagrinode/agrinode/pkg/models"
	"go.uber.org/zap"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.db.CreateUser(r.Context(), req.Username, req.Email, req.Password)
	if errors.Is(err, database.ErrUserExists) {
		writeError(w, http.StatusConflict, "Username or email already exists")
		return
	}
	if err != nil {
		s.logger.Error(r.Context(), "failed to create user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	s.logger.Info(r.Context(), "user registered", zap.String("user_id", user.ID))
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.db.ValidateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, database.ErrInvalidCredentials) {
			s.logger.Error(r.Context(), "failed to validate user", zap.Error(err))
		}
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		s.logger.Error(r.Context(), "failed to generate token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, models.LoginResponse{
		User:      *user,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	user, err := s.db.GetUser(r.Context(), claims.Identity())
	if errors.Is(err, database.ErrUserNotFound) {
		writeError(w, http.StatusUnauthorized, "User not found")
		return
	}
	if err != nil {
		s.logger.Error(r.Context(), "failed to load user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
