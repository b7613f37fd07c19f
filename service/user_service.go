package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-medstore-api/logger"
	"go-medstore-api/model"
	"go-medstore-api/repository"
	"time"

	"github.com/sirupsen/logrus"
)

type passwordHasher interface {
	HashPassword(password string) (string, error)
	CheckPasswordHash(password, hash string) bool
}

type lockedVerifier interface {
	VerifyLocked(ctx context.Context, tx *sql.Tx, user *model.User, code string) error
}

// UserService handles operations on an authenticated user's own account and
// the admin role change.
type UserService struct {
	db        *sql.DB
	userRepo  repository.IUserRepository
	tokenRepo repository.ITokenRepository
	passwords passwordHasher
	otp       lockedVerifier
	cache     ICacheClient
	now       func() time.Time
}

// NewUserService creates a new UserService. cache may be nil.
func NewUserService(db *sql.DB, userRepo repository.IUserRepository, tokenRepo repository.ITokenRepository, passwords passwordHasher, otp lockedVerifier, cache ICacheClient) *UserService {
	return &UserService{
		db:        db,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		passwords: passwords,
		otp:       otp,
		cache:     cache,
		now:       time.Now,
	}
}

// GetProfile returns the user, read through the profile cache.
func (s *UserService) GetProfile(ctx context.Context, userID int) (*model.User, error) {
	key := profileCacheKey(userID)

	var cached model.User
	if cacheGet(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	cacheSet(ctx, s.cache, key, user, profileCacheTTL)
	return user, nil
}

// ChangePassword sets a new password after proving ownership with either the
// old password or an OTP. Existing refresh tokens are revoked.
func (s *UserService) ChangePassword(ctx context.Context, userID int, req model.ChangePasswordRequest) error {
	log := logger.Log.WithField("user_id", userID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := s.lockUser(ctx, tx, userID)
	if err != nil {
		return err
	}

	if req.OldPassword != "" {
		if !s.passwords.CheckPasswordHash(req.OldPassword, user.Password) {
			log.Warn("Password change rejected: old password mismatch")
			return ErrInvalidCredentials
		}
	} else if err := s.verifyOTP(ctx, tx, user, req.OTP); err != nil {
		return err
	}

	hashed, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, tx, userID, hashed); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	if err := s.tokenRepo.DeleteByUserID(ctx, userID); err != nil {
		log.WithError(err).Error("Failed to revoke refresh tokens after password change")
	}
	log.Info("Password changed")
	return nil
}

// UpdateProfile changes one profile field. Email and mobile changes need an OTP.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, req model.UpdateProfileRequest) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"field":   req.Key,
	})

	sensitive := false
	switch req.Key {
	case "name", "image":
	case "email", "mobileNo":
		sensitive = true
	default:
		return ErrUnknownField
	}
	if sensitive && req.OTP == "" {
		return ErrOTPRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := s.lockUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	if sensitive {
		if err := s.verifyOTP(ctx, tx, user, req.OTP); err != nil {
			return err
		}
	}

	switch req.Key {
	case "name":
		user.Name = req.Value
	case "image":
		user.Image = req.Value
	case "email":
		user.Email = req.Value
	case "mobileNo":
		user.MobileNo = req.Value
	}

	if err := s.userRepo.UpdateProfileTx(ctx, tx, user); err != nil {
		if conflict := conflictFrom(err); conflict != nil {
			return conflict
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	cacheDel(ctx, s.cache, profileCacheKey(userID))
	log.Info("Profile updated")
	return nil
}

// RequestDeletion marks the account for deletion once the OTP is confirmed.
// The row is purged by the reaper after the grace period.
func (s *UserService) RequestDeletion(ctx context.Context, userID int, code string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := s.lockUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	if err := s.verifyOTP(ctx, tx, user, code); err != nil {
		return err
	}

	if err := s.userRepo.RequestDeletion(ctx, tx, userID, s.now()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	if err := s.tokenRepo.DeleteByUserID(ctx, userID); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to revoke refresh tokens after deletion request")
	}
	cacheDel(ctx, s.cache, profileCacheKey(userID))
	logger.Log.WithField("user_id", userID).Info("Account deletion requested")
	return nil
}

// UpdateUserRole validates the role and calls the repository to update it.
func (s *UserService) UpdateUserRole(ctx context.Context, userID int, newRole model.Role) error {
	switch newRole {
	case model.RoleAdmin, model.RoleUser, model.RoleManager, model.RoleBlocked:
	default:
		return ErrInvalidRole
	}

	if err := s.userRepo.UpdateUserRole(ctx, userID, newRole); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	cacheDel(ctx, s.cache, profileCacheKey(userID))

	// A blocked user must not keep refreshing.
	if newRole == model.RoleBlocked {
		if err := s.tokenRepo.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"role":    newRole,
	}).Info("User role updated")
	return nil
}

func (s *UserService) lockUser(ctx context.Context, tx *sql.Tx, userID int) (*model.User, error) {
	user, err := s.userRepo.GetUserByIDForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// verifyOTP applies the attempt and commits the counters when the code is wrong.
func (s *UserService) verifyOTP(ctx context.Context, tx *sql.Tx, user *model.User, code string) error {
	err := s.otp.VerifyLocked(ctx, tx, user, code)
	if err == nil {
		return nil
	}
	var otpErr *OTPError
	if errors.As(err, &otpErr) {
		if cerr := tx.Commit(); cerr != nil {
			return fmt.Errorf("could not commit transaction: %w", cerr)
		}
	}
	return err
}
