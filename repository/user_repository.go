package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-medstore-api/logger"
	"go-medstore-api/model"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// ErrDuplicateUser is returned when a unique column (email, license, aadhar, gst) already exists.
var ErrDuplicateUser = errors.New("user already exists")

// DuplicateError names the unique column a write collided with.
type DuplicateError struct {
	Column string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("user already exists: duplicate %s", e.Column)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateUser
}

// IUserRepository defines the contract for user database operations.
type IUserRepository interface {
	CreateUserTx(ctx context.Context, tx *sql.Tx, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	GetUserForUpdate(ctx context.Context, tx *sql.Tx, email string) (*model.User, error)
	GetUserByIDForUpdate(ctx context.Context, tx *sql.Tx, id int) (*model.User, error)
	UpdateOTPState(ctx context.Context, tx *sql.Tx, user *model.User) error
	UpdateProfileTx(ctx context.Context, tx *sql.Tx, user *model.User) error
	MarkVerifiedTx(ctx context.Context, tx *sql.Tx, id int) error
	UpdatePassword(ctx context.Context, tx *sql.Tx, id int, passwordHash string) error
	RequestDeletion(ctx context.Context, tx *sql.Tx, id int, at time.Time) error
	UpdateUserRole(ctx context.Context, id int, role model.Role) error
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, name, email, password, aadhar_no, license_no, gst_no, mobile_no, image, role,
	is_verified, otp_hash, otp_send_time, otp_window_start, otp_attempt_count,
	verification_attempt_count, verification_time, is_deleted, delete_requested_at, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Password, &user.AadharNo, &user.LicenseNo,
		&user.GSTNo, &user.MobileNo, &user.Image, &user.Role,
		&user.IsVerified, &user.OTPHash, &user.OTPSendTime, &user.OTPWindowStart, &user.OTPAttemptCount,
		&user.VerificationAttemptCount, &user.VerificationTime, &user.IsDeleted, &user.DeleteRequestedAt, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// asDuplicate converts a unique violation into a *DuplicateError. The column is
// taken from the constraint name (users_<column>_key). Other errors return nil.
func asDuplicate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	column := strings.TrimSuffix(strings.TrimPrefix(pqErr.Constraint, "users_"), "_key")
	return &DuplicateError{Column: column}
}

// CreateUserTx inserts a new user inside tx so registration can roll it back.
func (r *UserRepository) CreateUserTx(ctx context.Context, tx *sql.Tx, user *model.User) error {
	log := logger.Log.WithField("email", user.Email)
	log.Info("Executing query to create a new user")

	query := `INSERT INTO users (name, email, password, aadhar_no, license_no, gst_no, mobile_no, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, role, created_at`
	err := tx.QueryRowContext(ctx, query,
		user.Name, user.Email, user.Password, user.AadharNo, user.LicenseNo, user.GSTNo, user.MobileNo, user.Image,
	).Scan(&user.ID, &user.Role, &user.CreatedAt)
	if err != nil {
		if dup := asDuplicate(err); dup != nil {
			log.WithError(dup).Info("User already exists")
			return dup
		}
		log.WithError(err).Error("Failed to execute create user query")
		return err
	}
	return nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND NOT is_deleted`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Log.WithError(err).WithField("email", email).Error("Failed to execute get user by email query")
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND NOT is_deleted`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Log.WithError(err).WithField("user_id", id).Error("Failed to execute get user by id query")
		}
		return nil, err
	}
	return user, nil
}

// GetUserForUpdate locks the user row for the rest of tx.
func (r *UserRepository) GetUserForUpdate(ctx context.Context, tx *sql.Tx, email string) (*model.User, error) {
	log := logger.Log.WithField("email", email)
	log.Info("Executing query to get user for update")

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND NOT is_deleted FOR UPDATE`
	user, err := scanUser(tx.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info("User not found for update")
		} else {
			log.WithError(err).Error("Failed to execute get user for update query")
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByIDForUpdate(ctx context.Context, tx *sql.Tx, id int) (*model.User, error) {
	log := logger.Log.WithField("user_id", id)
	log.Info("Executing query to get user by id for update")

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND NOT is_deleted FOR UPDATE`
	user, err := scanUser(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info("User not found for update")
		} else {
			log.WithError(err).Error("Failed to execute get user by id for update query")
		}
		return nil, err
	}
	return user, nil
}

// UpdateOTPState persists every OTP field of user.
func (r *UserRepository) UpdateOTPState(ctx context.Context, tx *sql.Tx, user *model.User) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":                    user.ID,
		"otp_attempt_count":          user.OTPAttemptCount,
		"verification_attempt_count": user.VerificationAttemptCount,
	})
	log.Info("Executing query to update otp state")

	query := `UPDATE users SET otp_hash = $1, otp_send_time = $2, otp_window_start = $3, otp_attempt_count = $4,
		verification_attempt_count = $5, verification_time = $6, updated_at = NOW() WHERE id = $7`
	_, err := tx.ExecContext(ctx, query,
		user.OTPHash, user.OTPSendTime, user.OTPWindowStart, user.OTPAttemptCount,
		user.VerificationAttemptCount, user.VerificationTime, user.ID,
	)
	if err != nil {
		log.WithError(err).Error("Failed to execute update otp state query")
		return err
	}
	return nil
}

// MarkVerifiedTx flags the email as verified and clears the send-side OTP counter.
func (r *UserRepository) MarkVerifiedTx(ctx context.Context, tx *sql.Tx, id int) error {
	log := logger.Log.WithField("user_id", id)
	log.Info("Executing query to mark user verified")

	query := `UPDATE users SET is_verified = TRUE, otp_attempt_count = 0, updated_at = NOW() WHERE id = $1`
	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute mark verified query")
		return err
	}
	return expectOneRow(res)
}

// UpdateProfileTx writes the editable profile fields of user.
func (r *UserRepository) UpdateProfileTx(ctx context.Context, tx *sql.Tx, user *model.User) error {
	log := logger.Log.WithField("user_id", user.ID)
	log.Info("Executing query to update profile")

	query := `UPDATE users SET name = $1, email = $2, mobile_no = $3, image = $4, updated_at = NOW() WHERE id = $5`
	res, err := tx.ExecContext(ctx, query, user.Name, user.Email, user.MobileNo, user.Image, user.ID)
	if err != nil {
		if dup := asDuplicate(err); dup != nil {
			log.WithError(dup).Info("Profile update collided with another user")
			return dup
		}
		log.WithError(err).Error("Failed to execute update profile query")
		return err
	}
	return expectOneRow(res)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, tx *sql.Tx, id int, passwordHash string) error {
	log := logger.Log.WithField("user_id", id)
	log.Info("Executing query to update password")

	query := `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`
	_, err := tx.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute update password query")
		return err
	}
	return nil
}

func (r *UserRepository) RequestDeletion(ctx context.Context, tx *sql.Tx, id int, at time.Time) error {
	log := logger.Log.WithField("user_id", id)
	log.Info("Executing query to submit deletion request")

	query := `UPDATE users SET is_deleted = TRUE, delete_requested_at = $1, updated_at = NOW() WHERE id = $2`
	_, err := tx.ExecContext(ctx, query, at, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute deletion request query")
		return err
	}
	return nil
}

func (r *UserRepository) UpdateUserRole(ctx context.Context, id int, role model.Role) error {
	log := logger.Log.WithFields(logrus.Fields{"user_id": id, "role": role})
	log.Info("Executing query to update user role")

	query := `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2 AND NOT is_deleted`
	res, err := r.DB.ExecContext(ctx, query, string(role), id)
	if err != nil {
		log.WithError(err).Error("Failed to execute update user role query")
		return err
	}
	return expectOneRow(res)
}

// PurgeDeleted removes users whose deletion request is older than before.
func (r *UserRepository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM users WHERE is_deleted AND delete_requested_at < $1`
	res, err := r.DB.ExecContext(ctx, query, before)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute purge deleted users query")
		return 0, err
	}
	return res.RowsAffected()
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
