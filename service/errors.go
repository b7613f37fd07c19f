package service

import (
	"errors"
	"fmt"
	"go-medstore-api/repository"
	"math"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrTooManyAttempts    = errors.New("maximum attempts exceeded")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrEmailNotVerified   = errors.New("email address is not verified")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrRefreshReused      = errors.New("refresh token already used")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrMailDispatch       = errors.New("error sending mail")
	ErrInvalidRole        = errors.New("invalid role specified")
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrOTPRequired        = errors.New("otp required")
	ErrUnknownField       = errors.New("unknown profile field")
)

// ConflictError is a write that collided with another user's unique field.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s is already registered.", e.Field)
}

func (e *ConflictError) Unwrap() error {
	return ErrAlreadyRegistered
}

var conflictLabels = map[string]string{
	"license_no": "License number",
	"aadhar_no":  "Aadhaar number",
	"gst_no":     "GST number",
	"mobile_no":  "Mobile number",
}

// conflictFrom maps a repository duplicate onto ErrEmailTaken or a *ConflictError.
// It returns nil for any other error.
func conflictFrom(err error) error {
	var dup *repository.DuplicateError
	if !errors.As(err, &dup) {
		return nil
	}
	if dup.Column == "email" {
		return ErrEmailTaken
	}
	label, ok := conflictLabels[dup.Column]
	if !ok {
		label = "A unique field"
	}
	return &ConflictError{Field: label}
}

// CooldownError reports an exhausted attempt budget and how long to wait.
type CooldownError struct {
	Minutes int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("Maximum Attempt exceded. Please try after %d minutes.", e.Minutes)
}

func (e *CooldownError) Unwrap() error {
	return ErrTooManyAttempts
}

// newCooldown computes the wait as total minus elapsed whole minutes (rounded up), never below one.
func newCooldown(total time.Duration, since, now time.Time) *CooldownError {
	elapsed := int(math.Ceil(now.Sub(since).Minutes()))
	remaining := int(total.Minutes()) - elapsed
	if remaining < 1 {
		remaining = 1
	}
	return &CooldownError{Minutes: remaining}
}

// OTPError is a rejected OTP with a user-facing message.
type OTPError struct {
	Message string
}

func (e *OTPError) Error() string {
	return e.Message
}

func (e *OTPError) Unwrap() error {
	return ErrInvalidOTP
}
