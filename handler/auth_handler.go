package handler

import (
	"context"
	"errors"
	"go-medstore-api/common"
	"go-medstore-api/logger"
	"go-medstore-api/model"
	"go-medstore-api/service"
	"net/http"
)

type authService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	VerifyEmail(ctx context.Context, token string) (*model.User, model.TokenPair, error)
	Login(ctx context.Context, email, password string) (*model.User, model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, *model.User, error)
	Logout(ctx context.Context, userID int) error
}

type AuthHandler struct {
	service authService
	cookies CookieConfig
}

func NewAuthHandler(service authService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{service: service, cookies: cookies}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates an unverified user and mails a verification link.
// @Tags         authentication
// @Accept       json
// @Produce      json
// @Param        user  body      model.RegisterRequest  true  "Registration details"
// @Success      201   {object}  common.Envelope
// @Failure      400   {object}  common.Envelope
// @Failure      409   {object}  common.Envelope
// @Failure      500   {object}  common.Envelope
// @Router       /authentication/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		return toAppError(err)
	}

	common.Success(w, http.StatusCreated,
		"User registered successfully. Please check your email to verify your account.",
		model.Profile{Name: user.Name})
	return nil
}

// VerifyEmail godoc
// @Summary      Verify an email address
// @Description  Consumes the verification token from the mailed link and opens a session.
// @Tags         authentication
// @Produce      json
// @Param        token  query     string  true  "Verification token"
// @Success      200    {object}  common.Envelope{data=model.LoginResponse}
// @Failure      401    {object}  common.Envelope
// @Router       /authentication/register [get]
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) *common.AppError {
	req := model.VerifyEmailRequest{Token: r.URL.Query().Get("token")}
	if appErr := common.Validate(req); appErr != nil {
		return appErr
	}

	user, pair, err := h.service.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		return toAppError(err)
	}

	h.writeSession(w, "Email verified successfully.", user, pair)
	return nil
}

// Login godoc
// @Summary      Log in
// @Description  Checks credentials, returns an access token and sets the refresh and csrf cookies.
// @Tags         authentication
// @Accept       json
// @Produce      json
// @Param        credentials  body      model.LoginRequest  true  "Login credentials"
// @Success      200          {object}  common.Envelope{data=model.LoginResponse}
// @Failure      401          {object}  common.Envelope
// @Failure      404          {object}  common.Envelope
// @Failure      503          {object}  common.Envelope
// @Router       /authentication/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	user, pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return toAppError(err)
	}

	h.writeSession(w, "Login Successful", user, pair)
	return nil
}

// RefreshToken godoc
// @Summary      Rotate the token pair
// @Description  Exchanges the refresh token from the bearer header, or the cookie when no header is sent, for a new pair.
// @Tags         authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.Envelope{data=model.RefreshResponse}
// @Failure      401  {object}  common.Envelope
// @Failure      503  {object}  common.Envelope
// @Router       /authentication/refresh-token [get]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) *common.AppError {
	token, appErr := bearerToken(r)
	if appErr != nil {
		token = cookieValue(r, refreshCookieName)
	}
	if token == "" {
		return common.NewAppError(http.StatusUnauthorized, "Refresh token is required", nil)
	}

	pair, _, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		if endsSession(err) {
			h.cookies.clearSession(w)
		}
		return toAppError(err)
	}

	h.cookies.setRefresh(w, pair.RefreshToken)
	w.Header().Set("Authorization", "Bearer "+pair.AccessToken)
	common.Success(w, http.StatusOK, "Token refreshed successfully.", model.RefreshResponse{
		NewAccessToken: pair.AccessToken,
		RefreshToken:   pair.RefreshToken,
	})
	return nil
}

// endsSession reports whether a refresh failure means the stored session is dead.
func endsSession(err error) bool {
	return errors.Is(err, service.ErrInvalidToken) ||
		errors.Is(err, service.ErrRefreshReused) ||
		errors.Is(err, service.ErrAccountBlocked)
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes every refresh token of the caller and clears the session cookies.
// @Tags         authentication
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  common.Envelope
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := userIDFromContext(r)
	if appErr != nil {
		return appErr
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		return toAppError(err)
	}
	logger.Log.WithField("user_id", userID).Info("User logged out")

	h.cookies.clearSession(w)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, message string, user *model.User, pair model.TokenPair) {
	csrfToken := service.NewCSRFToken()
	h.cookies.setSession(w, pair, csrfToken)
	common.SuccessWithMeta(w, http.StatusOK, message, model.LoginResponse{
		User:        model.Profile{Name: user.Name},
		AccessToken: pair.AccessToken,
	}, csrfMeta{CSRFToken: csrfToken})
}
