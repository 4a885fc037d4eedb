package middleware

import (
	"github.com/SundayYogurt/image_service/internal/helper"
	"github.com/SundayYogurt/image_service/internal/helper/utils"
	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware requires "Authorization: Bearer <jwt>". A missing header is
// 401, a token that fails verification is 403. On success the verified claims
// are stored in Locals("user"), read back with helper.Auth.GetCurrentUser.
func AuthMiddleware(auth helper.Auth) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr, ok := helper.BearerToken(ctx.Get(fiber.HeaderAuthorization))
		if !ok {
			return utils.ResponseError(ctx, fiber.StatusUnauthorized, "Access token required")
		}

		user, err := auth.VerifyToken(tokenStr)
		if err != nil {
			return utils.ResponseError(ctx, fiber.StatusForbidden, "Invalid or expired token")
		}

		ctx.Locals("user", user)
		return ctx.Next()
	}
}
