// file: repository/token_repository.go

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-medstore-api/logger"
	"go-medstore-api/model"
	"time"

	"github.com/sirupsen/logrus"
)

// ITokenRepository defines the contract for refresh and verification token storage.
type ITokenRepository interface {
	CreateRefresh(ctx context.Context, token *model.RefreshToken) error
	FindRefresh(ctx context.Context, tokenHash string, userID int) (*model.RefreshToken, error)
	DeleteRefresh(ctx context.Context, tokenHash string, userID int) (bool, error)
	RotateRefresh(ctx context.Context, oldHash string, userID int, next *model.RefreshToken) (bool, error)
	DeleteByUserID(ctx context.Context, userID int) error
	CreateVerificationTx(ctx context.Context, tx *sql.Tx, token *model.VerificationToken) error
	ConsumeVerificationTx(ctx context.Context, tx *sql.Tx, tokenHash string, userID int) (bool, error)
	DeleteVerificationsTx(ctx context.Context, tx *sql.Tx, userID int) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenRepository implements ITokenRepository.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

// CreateRefresh inserts a new refresh token record into the database.
func (r *TokenRepository) CreateRefresh(ctx context.Context, token *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    token.UserID,
		"expires_at": token.ExpiresAt,
	})
	log.Info("Executing query to create a new refresh token")

	query := `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query, token.UserID, token.TokenHash, token.ExpiresAt).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create refresh token query")
		return err
	}
	return nil
}

// FindRefresh retrieves an unexpired refresh token by hash and owner.
func (r *TokenRepository) FindRefresh(ctx context.Context, tokenHash string, userID int) (*model.RefreshToken, error) {
	token := &model.RefreshToken{}
	query := `SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens
		WHERE token_hash = $1 AND user_id = $2 AND expires_at > NOW()`
	err := r.DB.QueryRowContext(ctx, query, tokenHash, userID).Scan(&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to execute get refresh token query")
		}
		return nil, err // Return sql.ErrNoRows if not found
	}
	return token, nil
}

// DeleteRefresh deletes one refresh token and reports whether it existed.
func (r *TokenRepository) DeleteRefresh(ctx context.Context, tokenHash string, userID int) (bool, error) {
	query := `DELETE FROM refresh_tokens WHERE token_hash = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, tokenHash, userID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to execute delete refresh token query")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RotateRefresh atomically consumes oldHash and stores next. It returns false
// without storing anything when oldHash was already consumed or has expired.
func (r *TokenRepository) RotateRefresh(ctx context.Context, oldHash string, userID int, next *model.RefreshToken) (bool, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Rotating refresh token")

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var consumedID int
	deleteQuery := `DELETE FROM refresh_tokens WHERE token_hash = $1 AND user_id = $2 AND expires_at > NOW() RETURNING id`
	err = tx.QueryRowContext(ctx, deleteQuery, oldHash, userID).Scan(&consumedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Refresh token already consumed or expired")
			return false, nil
		}
		log.WithError(err).Error("Failed to consume refresh token")
		return false, err
	}

	insertQuery := `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3) RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, insertQuery, next.UserID, next.TokenHash, next.ExpiresAt).Scan(&next.ID, &next.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to store rotated refresh token")
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("could not commit transaction: %w", err)
	}
	return true, nil
}

// DeleteByUserID deletes all refresh tokens for a specific user.
// This is used for logging out from all sessions.
func (r *TokenRepository) DeleteByUserID(ctx context.Context, userID int) error {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to delete all refresh tokens for a user")

	query := `DELETE FROM refresh_tokens WHERE user_id = $1`
	_, err := r.DB.ExecContext(ctx, query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete refresh tokens query")
		return err
	}
	return nil
}

// CreateVerificationTx stores a verification token inside the registration transaction.
func (r *TokenRepository) CreateVerificationTx(ctx context.Context, tx *sql.Tx, token *model.VerificationToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    token.UserID,
		"expires_at": token.ExpiresAt,
	})
	log.Info("Executing query to create a verification token")

	query := `INSERT INTO verification_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := tx.QueryRowContext(ctx, query, token.UserID, token.TokenHash, token.ExpiresAt).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create verification token query")
		return err
	}
	return nil
}

// ConsumeVerificationTx deletes an unexpired verification token inside tx and
// reports whether it existed. A rollback restores the token.
func (r *TokenRepository) ConsumeVerificationTx(ctx context.Context, tx *sql.Tx, tokenHash string, userID int) (bool, error) {
	query := `DELETE FROM verification_tokens WHERE token_hash = $1 AND user_id = $2 AND expires_at > NOW()`
	res, err := tx.ExecContext(ctx, query, tokenHash, userID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to execute consume verification token query")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteVerificationsTx drops every remaining verification token of the user.
func (r *TokenRepository) DeleteVerificationsTx(ctx context.Context, tx *sql.Tx, userID int) error {
	query := `DELETE FROM verification_tokens WHERE user_id = $1`
	if _, err := tx.ExecContext(ctx, query, userID); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to execute delete verification tokens query")
		return err
	}
	return nil
}

// PurgeExpired removes every refresh and verification token that expired before now.
func (r *TokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"refresh_tokens", "verification_tokens"} {
		res, err := r.DB.ExecContext(ctx, `DELETE FROM `+table+` WHERE expires_at <= $1`, now)
		if err != nil {
			logger.Log.WithError(err).WithField("table", table).Error("Failed to purge expired tokens")
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
