package handlers

import (
	"errors"
	"fmt"

	"github.com/SundayYogurt/image_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/image_service/internal/dto"
	"github.com/SundayYogurt/image_service/internal/helper"
	"github.com/SundayYogurt/image_service/internal/helper/utils"
	"github.com/SundayYogurt/image_service/internal/services"
	pkgutils "github.com/SundayYogurt/image_service/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type ImageHandler struct {
	svc      services.ImageService
	auth     helper.Auth
	maxBytes int64
}

func NewImageHandler(svc services.ImageService, auth helper.Auth, maxBytes int64) *ImageHandler {
	return &ImageHandler{svc: svc, auth: auth, maxBytes: maxBytes}
}

func (h *ImageHandler) SetupRoutes(app *fiber.App) {
	images := app.Group("/api/images", middleware.AuthMiddleware(h.auth))

	images.Post("/", h.Upload)
	images.Get("/", h.List)
	images.Get("/:id", h.Get)
	images.Patch("/:id", h.Rename)
	images.Delete("/:id", h.Delete)
}

// POST /api/images
// form-data: image=<file>
func (h *ImageHandler) Upload(ctx *fiber.Ctx) error {
	userID, err := currentUserID(ctx, h.auth)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	file, err := ctx.FormFile("image")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "image file is required")
	}
	if file.Size > h.maxBytes {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, fmt.Sprintf("file too large (max %d bytes)", h.maxBytes))
	}

	f, err := file.Open()
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "cannot open uploaded file")
	}
	defer f.Close()

	b, err := pkgutils.ReadAllLimit(f, h.maxBytes)
	if err != nil {
		if errors.Is(err, pkgutils.ErrTooLarge) {
			return utils.ResponseError(ctx, fiber.StatusBadRequest, fmt.Sprintf("file too large (max %d bytes)", h.maxBytes))
		}
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "cannot read uploaded file")
	}

	img, err := h.svc.Upload(ctx.UserContext(), userID, dto.ImageUpload{
		Filename: file.Filename,
		Bytes:    b,
	})
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseJSON(ctx, fiber.StatusCreated, img)
}

func (h *ImageHandler) List(ctx *fiber.Ctx) error {
	userID, err := currentUserID(ctx, h.auth)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	images, err := h.svc.List(ctx.UserContext(), userID)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseJSON(ctx, fiber.StatusOK, dto.ImageListResponse{Images: images})
}

func (h *ImageHandler) Get(ctx *fiber.Ctx) error {
	userID, imageID, err := h.ids(ctx)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	img, err := h.svc.Get(ctx.UserContext(), userID, imageID)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseJSON(ctx, fiber.StatusOK, img)
}

func (h *ImageHandler) Rename(ctx *fiber.Ctx) error {
	userID, imageID, err := h.ids(ctx)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	var requestBody dto.RenameImageRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}
	if err := helper.ValidateStruct(requestBody); err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	img, err := h.svc.Rename(ctx.UserContext(), userID, imageID, requestBody.Filename)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseJSON(ctx, fiber.StatusOK, img)
}

func (h *ImageHandler) Delete(ctx *fiber.Ctx) error {
	userID, imageID, err := h.ids(ctx)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	if err := h.svc.Delete(ctx.UserContext(), userID, imageID); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, "Image deleted")
}

func (h *ImageHandler) ids(ctx *fiber.Ctx) (uint, uint, error) {
	userID, err := currentUserID(ctx, h.auth)
	if err != nil {
		return 0, 0, err
	}
	imageID, err := ctx.ParamsInt("id")
	if err != nil || imageID <= 0 {
		return 0, 0, helper.BadRequest("invalid image id")
	}
	return userID, uint(imageID), nil
}
