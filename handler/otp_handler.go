package handler

import (
	"context"
	"go-medstore-api/common"
	"go-medstore-api/logger"
	"go-medstore-api/model"
	"net/http"
)

type otpService interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (model.OTPVerification, error)
}

type OTPHandler struct {
	service otpService
}

func NewOTPHandler(service otpService) *OTPHandler {
	return &OTPHandler{service: service}
}

// SendOTP godoc
// @Summary      Send a one-time code
// @Description  Mails a 6-digit code valid for 10 minutes. At most 3 sends per 30 minutes.
// @Tags         otp
// @Produce      json
// @Param        email  query     string  true  "Account email"
// @Success      200    {object}  common.Envelope
// @Failure      404    {object}  common.Envelope
// @Failure      429    {object}  common.Envelope
// @Router       /authentication/otp [get]
func (h *OTPHandler) SendOTP(w http.ResponseWriter, r *http.Request) *common.AppError {
	req := model.SendOTPRequest{Email: r.URL.Query().Get("email")}
	if appErr := common.Validate(req); appErr != nil {
		return appErr
	}

	if err := h.service.SendOTP(r.Context(), req.Email); err != nil {
		return toAppError(err)
	}

	common.Success(w, http.StatusOK, "OTP sent successfully.", nil)
	return nil
}

// VerifyOTP godoc
// @Summary      Verify a one-time code
// @Tags         otp
// @Accept       json
// @Produce      json
// @Param        payload  body      model.VerifyOTPRequest  true  "Email and code"
// @Success      200      {object}  common.Envelope{data=model.OTPVerification}
// @Failure      400      {object}  common.Envelope
// @Failure      429      {object}  common.Envelope
// @Router       /authentication/otp [post]
func (h *OTPHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.VerifyOTPRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	res, err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		return toAppError(err)
	}
	if !res.Verified {
		logger.Log.WithField("email", req.Email).Warn("OTP verification failed")
		return common.NewAppError(http.StatusBadRequest, res.Message, nil)
	}

	common.Success(w, http.StatusOK, res.Message, res)
	return nil
}
