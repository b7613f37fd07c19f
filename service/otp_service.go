package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-medstore-api/logger"
	"go-medstore-api/mailer"
	"go-medstore-api/model"
	"go-medstore-api/repository"
	"time"

	"github.com/sirupsen/logrus"
)

// OTPService sends and verifies one-time codes. Every state change runs in a
// transaction holding the user row lock, so concurrent requests for one
// subject are serialized.
type OTPService struct {
	db         *sql.DB
	userRepo   repository.IUserRepository
	mailer     mailer.Sender
	templateID string
	policy     OTPPolicy
	now        func() time.Time
	generate   func() (string, error)
}

func NewOTPService(db *sql.DB, userRepo repository.IUserRepository, sender mailer.Sender, templateID string, policy OTPPolicy) *OTPService {
	return &OTPService{
		db:         db,
		userRepo:   userRepo,
		mailer:     sender,
		templateID: templateID,
		policy:     policy,
		now:        time.Now,
		generate:   generateOTP,
	}
}

// SendOTP mails a new code to the user with the given email.
func (s *OTPService) SendOTP(ctx context.Context, email string) error {
	log := logger.Log.WithField("email", email)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := s.userRepo.GetUserForUpdate(ctx, tx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	now := s.now()
	if err := s.policy.beginSend(user, now); err != nil {
		log.WithField("otp_attempt_count", user.OTPAttemptCount).Warn("OTP send budget exhausted")
		return err
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("could not generate otp: %w", err)
	}

	params := map[string]interface{}{
		"name":  user.Name,
		"otp":   code,
		"email": user.Email,
		"text":  "verify your request",
	}
	if err := s.mailer.Send(ctx, s.templateID, params); err != nil {
		log.WithError(err).Error("Failed to dispatch otp mail")
		return fmt.Errorf("%w: %v", ErrMailDispatch, err)
	}

	s.policy.recordSend(user, hashSecret(code), now)
	if err := s.userRepo.UpdateOTPState(ctx, tx, user); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	log.WithField("otp_attempt_count", user.OTPAttemptCount).Info("OTP sent")
	return nil
}

// VerifyOTP checks code for the user with the given email. A wrong code is not
// an error: it is reported as Verified=false with a message.
func (s *OTPService) VerifyOTP(ctx context.Context, email, code string) (model.OTPVerification, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.OTPVerification{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := s.userRepo.GetUserForUpdate(ctx, tx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.OTPVerification{}, ErrUserNotFound
		}
		return model.OTPVerification{}, err
	}

	checkErr := s.VerifyLocked(ctx, tx, user, code)
	var otpErr *OTPError
	if checkErr != nil && !errors.As(checkErr, &otpErr) {
		return model.OTPVerification{}, checkErr
	}

	if err := tx.Commit(); err != nil {
		return model.OTPVerification{}, fmt.Errorf("could not commit transaction: %w", err)
	}

	if otpErr != nil {
		return model.OTPVerification{Verified: false, Message: otpErr.Message}, nil
	}
	return model.OTPVerification{Verified: true, Message: "OTP verified successfully."}, nil
}

// VerifyLocked applies one attempt to a user already locked by tx and persists
// the counters. The caller must commit tx even when an *OTPError is returned,
// otherwise the failed attempt is not counted.
func (s *OTPService) VerifyLocked(ctx context.Context, tx *sql.Tx, user *model.User, code string) error {
	checkErr := s.policy.checkCode(user, code, s.now())

	var cooldown *CooldownError
	if errors.As(checkErr, &cooldown) {
		logger.Log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"minutes": cooldown.Minutes,
		}).Warn("OTP verification budget exhausted")
		return checkErr
	}

	if err := s.userRepo.UpdateOTPState(ctx, tx, user); err != nil {
		return err
	}
	return checkErr
}
