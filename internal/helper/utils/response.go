package utils

import (
	"errors"

	"github.com/SundayYogurt/image_service/internal/helper"
	"github.com/gofiber/fiber/v2"
)

func ResponseError(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// ResponseAppError writes err as {"error": msg} with the status carried by a
// helper.AppError, or 500 with the raw message otherwise.
func ResponseAppError(ctx *fiber.Ctx, err error) error {
	var appErr *helper.AppError
	if errors.As(err, &appErr) {
		return ResponseError(ctx, appErr.Status, appErr.Message)
	}
	return ResponseError(ctx, fiber.StatusInternalServerError, err.Error())
}

func ResponseMessage(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"message": msg,
	})
}

// ResponseJSON writes data as the body itself, with no envelope.
func ResponseJSON(ctx *fiber.Ctx, status int, data interface{}) error {
	return ctx.Status(status).JSON(data)
}
