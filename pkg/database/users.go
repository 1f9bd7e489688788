package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smartagrinode/agrinode/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username or email already exists")
	ErrUserNotFound       = errors.New("user not found")
)

// hashPrefix marks bcrypt hashes of the SHA-256 pre-hash.
const hashPrefix = "v2:"

type userRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	AvatarURL    string `db:"avatar_url"`
	CreatedAt    string `db:"created_at"`
}

func (r *userRow) toModel() *models.User {
	return &models.User{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email,
		AvatarURL: r.AvatarURL,
		CreatedAt: parseTime(r.CreatedAt),
	}
}

// hashPassword pre-hashes with SHA-256 so passwords longer than bcrypt's
// 72 byte limit still count in full.
func hashPassword(password string) string {
	hash := sha256.Sum256([]byte(password))
	return hex.EncodeToString(hash[:])
}

func newPasswordHash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(hashPassword(password)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hashPrefix + string(hashed), nil
}

// CreateUser creates a new user with hashed password
func (dm *DatabaseManager) CreateUser(ctx context.Context, username, email, password string) (*models.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, errors.New("username, email and password must not be empty")
	}

	var taken int
	if err := dm.getContext(ctx, &taken,
		`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`, username, email,
	); err != nil {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}
	if taken > 0 {
		return nil, ErrUserExists
	}

	finalHash, err := newPasswordHash(password)
	if err != nil {
		return nil, err
	}

	row := userRow{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: finalHash,
		CreatedAt:    formatTime(time.Now()),
	}

	_, err = dm.execContext(ctx, `
        INSERT INTO users (id, username, email, password_hash, avatar_url, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, row.ID, row.Username, row.Email, row.PasswordHash, row.AvatarURL, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return row.toModel(), nil
}

// ValidateUser checks username and password
func (dm *DatabaseManager) ValidateUser(ctx context.Context, username, password string) (*models.User, error) {
	var row userRow
	err := dm.getContext(ctx, &row, `
        SELECT id, username, email, password_hash, avatar_url, created_at
        FROM users
        WHERE username = ?
    `, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	var compareErr error
	if strings.HasPrefix(row.PasswordHash, hashPrefix) {
		actualHash := strings.TrimPrefix(row.PasswordHash, hashPrefix)
		compareErr = bcrypt.CompareHashAndPassword([]byte(actualHash), []byte(hashPassword(password)))
	} else {
		// Plain bcrypt hashes are upgraded on the first successful login.
		compareErr = bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password))
		if compareErr == nil {
			if err := dm.migrateUserPassword(ctx, row.ID, password); err != nil {
				dm.logger.Warn(ctx, "failed to migrate password hash", zap.String("user.id", row.ID), zap.Error(err))
			}
		}
	}

	if compareErr != nil {
		return nil, ErrInvalidCredentials
	}

	return row.toModel(), nil
}

// migrateUserPassword rewrites a user's hash in the prefixed format
func (dm *DatabaseManager) migrateUserPassword(ctx context.Context, userID, password string) error {
	finalHash, err := newPasswordHash(password)
	if err != nil {
		return err
	}

	if _, err := dm.execContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, finalHash, userID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// GetUser loads a user by id.
func (dm *DatabaseManager) GetUser(ctx context.Context, id string) (*models.User, error) {
	var row userRow
	err := dm.getContext(ctx, &row, `
        SELECT id, username, email, password_hash, avatar_url, created_at
        FROM users
        WHERE id = ?
    `, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return row.toModel(), nil
}

// SetAvatar stores the avatar URL; an empty URL removes it.
func (dm *DatabaseManager) SetAvatar(ctx context.Context, userID, avatarURL string) error {
	n, err := dm.execContext(ctx, `UPDATE users SET avatar_url = ? WHERE id = ?`, avatarURL, userID)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
