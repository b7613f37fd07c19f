package handler

import (
	"context"
	"go-medstore-api/common"
	"go-medstore-api/logger"
	"go-medstore-api/model"
	"go-medstore-api/service"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
)

type userService interface {
	GetProfile(ctx context.Context, userID int) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int, req model.UpdateProfileRequest) error
	ChangePassword(ctx context.Context, userID int, req model.ChangePasswordRequest) error
	RequestDeletion(ctx context.Context, userID int, code string) error
	UpdateUserRole(ctx context.Context, userID int, role model.Role) error
}

type UserHandler struct {
	service userService
	cookies CookieConfig
}

func NewUserHandler(service userService, cookies CookieConfig) *UserHandler {
	return &UserHandler{service: service, cookies: cookies}
}

// GetProfile godoc
// @Summary      Current user
// @Description  Returns the caller's profile and rotates the csrf token.
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.Envelope{data=model.User}
// @Failure      401  {object}  common.Envelope
// @Failure      404  {object}  common.Envelope
// @Router       /api/user [get]
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := userIDFromContext(r)
	if appErr != nil {
		return appErr
	}

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		return toAppError(err)
	}

	csrfToken := service.NewCSRFToken()
	h.cookies.setCSRF(w, csrfToken)
	common.SuccessWithMeta(w, http.StatusOK, "Fetch Successful", user, csrfMeta{CSRFToken: csrfToken})
	return nil
}

// profileFieldRules validates the new value of each editable profile field.
var profileFieldRules = map[string]string{
	"name":     "min=2,max=50",
	"email":    "email",
	"mobileNo": "mobile",
	"image":    "url",
}

// UpdateProfile godoc
// @Summary      Update one profile field
// @Description  Changes name, image, email or mobileNo. Email and mobile changes require a one-time code.
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      model.UpdateProfileRequest  true  "Field, value and optional code"
// @Success      200      {object}  common.Envelope
// @Failure      400      {object}  common.Envelope
// @Failure      409      {object}  common.Envelope
// @Failure      429      {object}  common.Envelope
// @Router       /api/user [patch]
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := userIDFromContext(r)
	if appErr != nil {
		return appErr
	}

	var req model.UpdateProfileRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}
	if appErr := common.ValidateField(req.Key, req.Value, profileFieldRules[req.Key]); appErr != nil {
		return appErr
	}

	if err := h.service.UpdateProfile(r.Context(), userID, req); err != nil {
		return toAppError(err)
	}

	common.Success(w, http.StatusOK, "User updated successfully.", nil)
	return nil
}

// ChangePassword godoc
// @Summary      Change password
// @Description  Requires either the old password or a one-time code. Revokes all refresh tokens.
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      model.ChangePasswordRequest  true  "New password and proof"
// @Success      200      {object}  common.Envelope
// @Failure      400      {object}  common.Envelope
// @Failure      401      {object}  common.Envelope
// @Failure      429      {object}  common.Envelope
// @Router       /api/user/password [put]
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := userIDFromContext(r)
	if appErr != nil {
		return appErr
	}

	var req model.ChangePasswordRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	if err := h.service.ChangePassword(r.Context(), userID, req); err != nil {
		return toAppError(err)
	}

	common.Success(w, http.StatusOK, "Password updated successfully.", nil)
	return nil
}

// DeleteAccount godoc
// @Summary      Request account deletion
// @Description  Confirms with a one-time code. The account is purged after the grace period.
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      model.DeleteAccountRequest  true  "One-time code"
// @Success      200      {object}  common.Envelope
// @Failure      400      {object}  common.Envelope
// @Failure      429      {object}  common.Envelope
// @Router       /api/user [delete]
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := userIDFromContext(r)
	if appErr != nil {
		return appErr
	}

	var req model.DeleteAccountRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	if err := h.service.RequestDeletion(r.Context(), userID, req.OTP); err != nil {
		return toAppError(err)
	}

	h.cookies.clearSession(w)
	common.Success(w, http.StatusOK, "Your account will be deleted in 30 days.", nil)
	return nil
}

// UpdateUserRole godoc
// @Summary      Change a user's role
// @Description  Admin only. Setting the role to blocked revokes the user's refresh tokens.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                          true  "User ID"
// @Param        payload  body      model.UpdateUserRoleRequest  true  "New role"
// @Success      200      {object}  common.Envelope
// @Failure      400      {object}  common.Envelope
// @Failure      403      {object}  common.Envelope
// @Failure      404      {object}  common.Envelope
// @Router       /api/admin/users/{id}/role [patch]
func (h *UserHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) *common.AppError {
	targetID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || targetID <= 0 {
		return common.NewAppError(http.StatusBadRequest, "Invalid user ID", err)
	}

	var req model.UpdateUserRoleRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	adminID, _ := r.Context().Value(UserIDKey).(int)
	logger.Log.WithFields(logrus.Fields{
		"admin_id":  adminID,
		"target_id": targetID,
		"role":      req.Role,
	}).Info("Role update request received")

	if err := h.service.UpdateUserRole(r.Context(), targetID, req.Role); err != nil {
		return toAppError(err)
	}

	common.Success(w, http.StatusOK, "User role updated successfully.", nil)
	return nil
}
