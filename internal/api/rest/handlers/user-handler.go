package handlers

import (
	"github.com/SundayYogurt/image_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/image_service/internal/dto"
	"github.com/SundayYogurt/image_service/internal/helper"
	"github.com/SundayYogurt/image_service/internal/helper/utils"
	"github.com/SundayYogurt/image_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	svc  services.UserService
	auth helper.Auth
}

func NewUserHandler(svc services.UserService, auth helper.Auth) *UserHandler {
	return &UserHandler{svc: svc, auth: auth}
}

func (h *UserHandler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Auth
	api.Post("/signup", h.Signup)
	api.Get("/verify-email", h.VerifyEmail)
	api.Post("/login", h.Login)
	api.Post("/forgot-password", h.ForgotPassword)
	api.Post("/reset-password", h.ResetPassword)

	// Account
	account := api.Group("/account", middleware.AuthMiddleware(h.auth))
	account.Get("/", h.GetProfile)
	account.Put("/", h.UpdateProfile)
	account.Put("/password", h.ChangePassword)
	account.Delete("/", h.DeleteAccount)
}

func (h *UserHandler) Signup(ctx *fiber.Ctx) error {
	var requestBody dto.UserSignup
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}
	if err := helper.ValidateStruct(requestBody); err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	if err := h.svc.Signup(ctx.UserContext(), requestBody); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, "User registered, please check your email to verify your account")
}

func (h *UserHandler) VerifyEmail(ctx *fiber.Ctx) error {
	if err := h.svc.VerifyEmail(ctx.UserContext(), ctx.Query("token")); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, "Email verified successfully")
}

func (h *UserHandler) Login(ctx *fiber.Ctx) error {
	var requestBody dto.UserLogin
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email and password are required")
	}
	if err := helper.ValidateStruct(requestBody); err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	token, err := h.svc.Login(ctx.UserContext(), requestBody)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseJSON(ctx, fiber.StatusOK, dto.LoginResponse{Token: token})
}

func (h *UserHandler) ForgotPassword(ctx *fiber.Ctx) error {
	var requestBody dto.ForgotPasswordRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid email id")
	}
	if err := helper.ValidateStruct(requestBody); err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	if err := h.svc.ForgotPassword(ctx.UserContext(), requestBody.Email); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, "Password reset link sent")
}

func (h *UserHandler) ResetPassword(ctx *fiber.Ctx) error {
	var requestBody dto.ResetPasswordRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}
	if err := helper.ValidateStruct(requestBody); err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	if err := h.svc.ResetPassword(ctx.UserContext(), requestBody); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, "Password reset successfully")
}

func (h *UserHandler) ChangePassword(ctx *fiber.Ctx) error {
	userID, err := currentUserID(ctx, h.auth)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	var requestBody dto.ChangePasswordRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}
	if err := helper.ValidateStruct(requestBody); err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	if err := h.svc.ChangePassword(ctx.UserContext(), userID, requestBody); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, "Password updated successfully")
}

func (h *UserHandler) GetProfile(ctx *fiber.Ctx) error {
	userID, err := currentUserID(ctx, h.auth)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	profile, err := h.svc.GetProfile(ctx.UserContext(), userID)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseJSON(ctx, fiber.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(ctx *fiber.Ctx) error {
	userID, err := currentUserID(ctx, h.auth)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	var requestBody dto.UpdateUserProfile
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}
	if err := helper.ValidateStruct(requestBody); err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	profile, err := h.svc.UpdateProfile(ctx.UserContext(), userID, requestBody)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseJSON(ctx, fiber.StatusOK, profile)
}

func (h *UserHandler) DeleteAccount(ctx *fiber.Ctx) error {
	userID, err := currentUserID(ctx, h.auth)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	if err := h.svc.DeleteAccount(ctx.UserContext(), userID); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, "Account deleted")
}

// currentUserID reads the caller stored by middleware.AuthMiddleware.
func currentUserID(ctx *fiber.Ctx, auth helper.Auth) (uint, error) {
	user, err := auth.GetCurrentUser(ctx)
	if err != nil || user.UserID == 0 {
		return 0, helper.Unauthorized("unauthorized")
	}
	return user.UserID, nil
}
