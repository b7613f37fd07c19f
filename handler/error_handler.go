package handler

import (
	"errors"
	"go-medstore-api/common"
	"go-medstore-api/service"
	"net/http"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// toAppError maps a service error onto the status and message returned to clients.
func toAppError(err error) *common.AppError {
	var cooldown *service.CooldownError
	var otpErr *service.OTPError
	var conflict *service.ConflictError

	switch {
	case errors.As(err, &cooldown):
		return common.NewAppError(http.StatusTooManyRequests, cooldown.Error(), err)
	case errors.As(err, &otpErr):
		return common.NewAppError(http.StatusBadRequest, otpErr.Message, err)
	case errors.Is(err, service.ErrUserNotFound):
		return common.NewAppError(http.StatusNotFound, "User not found.", err)
	case errors.Is(err, service.ErrInvalidCredentials):
		return common.NewAppError(http.StatusUnauthorized, "Invalid credentials.", err)
	case errors.Is(err, service.ErrEmailTaken):
		return common.NewAppError(http.StatusConflict, "Email is already registered.", err)
	case errors.As(err, &conflict):
		return common.NewAppError(http.StatusConflict, conflict.Error(), err)
	case errors.Is(err, service.ErrOTPRequired):
		return common.NewAppError(http.StatusBadRequest, "OTP is required to change email or mobile number.", err)
	case errors.Is(err, service.ErrUnknownField):
		return common.NewAppError(http.StatusBadRequest, "This field cannot be updated.", err)
	case errors.Is(err, service.ErrAccountBlocked):
		return common.NewAppError(http.StatusServiceUnavailable, "Your account has been blocked. Please contact support.", err)
	case errors.Is(err, service.ErrEmailNotVerified):
		return common.NewAppError(http.StatusUnauthorized, "Please verify your email address before logging in.", err)
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrRefreshReused):
		return common.NewAppError(http.StatusUnauthorized, "Invalid or expired token.", err)
	case errors.Is(err, service.ErrInvalidRole):
		return common.NewAppError(http.StatusBadRequest, "Invalid role specified.", err)
	case errors.Is(err, service.ErrMailDispatch):
		return common.NewAppError(http.StatusInternalServerError, "Error sending mail. Please try again later.", err)
	default:
		return common.NewAppError(http.StatusInternalServerError, "Internal Server Error", err)
	}
}
