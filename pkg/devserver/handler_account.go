package devserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/smartagrinode/agrinode/pkg/database"
	"github.com/smartagrinode/agrinode/pkg/models"
	"go.uber.org/zap"
)

const (
	maxHistoryLimit = 100
	maxAvatarSize   = 5 << 20
	avatarsDir      = "avatars"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := models.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	claims := claimsFromContext(r.Context())
	history, err := s.db.History(r.Context(), claims.Identity(), limit)
	if err != nil {
		s.logger.Error(r.Context(), "failed to load history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	if s.opts.UploadDir == "" {
		writeError(w, http.StatusNotImplemented, "Avatar uploads are disabled")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExtensions[ext] {
		writeError(w, http.StatusBadRequest, "Invalid file format. Only JPG, PNG, JPEG allowed")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarSize+1))
	if err != nil || len(data) > maxAvatarSize {
		writeError(w, http.StatusBadRequest, "File size exceeds 5MB limit")
		return
	}

	dir, err := s.ensureUploadDir(avatarsDir)
	if err != nil {
		s.logger.Error(r.Context(), "failed to create upload directory", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to store avatar")
		return
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		s.logger.Error(r.Context(), "failed to write avatar", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to store avatar")
		return
	}

	claims := claimsFromContext(r.Context())
	previous := s.currentAvatar(r, claims.Identity())

	avatarURL := path.Join(uploadsPrefix, avatarsDir, name)
	if err := s.db.SetAvatar(r.Context(), claims.Identity(), avatarURL); err != nil {
		_ = os.Remove(filepath.Join(dir, name))
		s.writeUserError(w, r, err)
		return
	}
	s.removeAvatarFile(r, previous)

	writeJSON(w, http.StatusOK, models.AvatarResponse{AvatarURL: avatarURL})
}

func (s *Server) handleDeleteAvatar(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	previous := s.currentAvatar(r, claims.Identity())

	if err := s.db.SetAvatar(r.Context(), claims.Identity(), ""); err != nil {
		s.writeUserError(w, r, err)
		return
	}
	s.removeAvatarFile(r, previous)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Avatar deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cropLoaded := s.crop.Loaded()
	weedLoaded := s.weed.Loaded()
	writeJSON(w, http.StatusOK, models.HealthStatus{
		Status:          "healthy",
		CropModelLoaded: cropLoaded,
		WeedModelLoaded: weedLoaded,
		ModelsLoaded:    cropLoaded && weedLoaded,
		Database:        s.db.Status(),
	})
}

func (s *Server) ensureUploadDir(sub string) (string, error) {
	dir := filepath.Join(s.opts.UploadDir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return dir, nil
}

func (s *Server) currentAvatar(r *http.Request, userID string) string {
	user, err := s.db.GetUser(r.Context(), userID)
	if err != nil {
		return ""
	}
	return user.AvatarURL
}

// removeAvatarFile deletes a previously uploaded avatar. URLs outside the
// upload directory are left alone.
func (s *Server) removeAvatarFile(r *http.Request, avatarURL string) {
	prefix := path.Join(uploadsPrefix, avatarsDir) + "/"
	if s.opts.UploadDir == "" || !strings.HasPrefix(avatarURL, prefix) {
		return
	}
	name := path.Base(avatarURL)
	if err := os.Remove(filepath.Join(s.opts.UploadDir, avatarsDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn(r.Context(), "failed to remove avatar file", zap.Error(err))
	}
}

func (s *Server) writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, database.ErrUserNotFound) {
		writeError(w, http.StatusUnauthorized, "User not found")
		return
	}
	s.logger.Error(r.Context(), "failed to update user", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Failed to update user")
}
