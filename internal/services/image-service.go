package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/SundayYogurt/image_service/internal/domain"
	"github.com/SundayYogurt/image_service/internal/dto"
	"github.com/SundayYogurt/image_service/internal/helper"
	"github.com/SundayYogurt/image_service/internal/interfaces"
	"github.com/SundayYogurt/image_service/internal/repository"
	"github.com/SundayYogurt/image_service/pkg/utils"
	"github.com/google/uuid"
)

const maxFilenameLen = 255

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type ImageService interface {
	Upload(ctx context.Context, userID uint, input dto.ImageUpload) (*domain.Image, error)
	List(ctx context.Context, userID uint) ([]domain.Image, error)
	Get(ctx context.Context, userID, imageID uint) (*domain.Image, error)
	Rename(ctx context.Context, userID, imageID uint, filename string) (*domain.Image, error)
	Delete(ctx context.Context, userID, imageID uint) error
	DeleteAllForUser(ctx context.Context, userID uint) error
}

type imageService struct {
	repo     repository.ImageRepository
	uploader interfaces.Uploader
	folder   string
	maxSize  int64
	logger   *slog.Logger
}

func NewImageService(
	repo repository.ImageRepository,
	uploader interfaces.Uploader,
	folder string,
	maxSize int64,
	logger *slog.Logger,
) ImageService {
	return &imageService{
		repo:     repo,
		uploader: uploader,
		folder:   folder,
		maxSize:  maxSize,
		logger:   logger,
	}
}

func (s *imageService) Upload(ctx context.Context, userID uint, input dto.ImageUpload) (*domain.Image, error) {
	if len(input.Bytes) == 0 {
		return nil, helper.BadRequest("image file is required")
	}
	if int64(len(input.Bytes)) > s.maxSize {
		return nil, helper.BadRequest(fmt.Sprintf("file too large (max %d bytes)", s.maxSize))
	}

	name := cleanFilename(input.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedImageExt[ext] {
		return nil, helper.BadRequest("only jpg/jpeg/png/gif/webp allowed")
	}

	info, err := utils.DetectImageInfo(input.Bytes)
	if err != nil {
		return nil, helper.BadRequest("file is not a valid image")
	}

	key := uuid.NewString() + ext
	url, err := s.uploader.UploadBytes(ctx, s.folder, key, input.Bytes)
	if err != nil {
		return nil, helper.Internal(fmt.Errorf("upload failed: %w", err))
	}

	img := &domain.Image{
		UserID:     userID,
		Filename:   name,
		StorageKey: key,
		URL:        url,
		Type:       info.MIMEType,
		Width:      info.Width,
		Height:     info.Height,
		Size:       int64(len(input.Bytes)),
	}
	if err := s.repo.CreateImage(ctx, img); err != nil {
		if delErr := s.uploader.Delete(ctx, s.folder, key); delErr != nil {
			s.logger.WarnContext(ctx, "orphaned upload", "key", key, "error", delErr)
		}
		return nil, helper.Internal(err)
	}

	s.logger.InfoContext(ctx, "image uploaded", "user_id", userID, "image_id", img.ID, "size", img.Size)
	return img, nil
}

func (s *imageService) List(ctx context.Context, userID uint) ([]domain.Image, error) {
	images, err := s.repo.FindImagesByUser(ctx, userID)
	if err != nil {
		return nil, helper.Internal(err)
	}
	return images, nil
}

func (s *imageService) Get(ctx context.Context, userID, imageID uint) (*domain.Image, error) {
	img, err := s.repo.FindImageByID(ctx, userID, imageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NotFound("Image not found")
		}
		return nil, helper.Internal(err)
	}
	return img, nil
}

// Rename changes the display filename only; the stored object keeps its key.
func (s *imageService) Rename(ctx context.Context, userID, imageID uint, filename string) (*domain.Image, error) {
	name := cleanFilename(filename)
	if name == "" {
		return nil, helper.BadRequest("filename cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxFilenameLen {
		return nil, helper.BadRequest(fmt.Sprintf("filename must be at most %d characters", maxFilenameLen))
	}

	if err := s.repo.RenameImage(ctx, userID, imageID, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NotFound("Image not found")
		}
		return nil, helper.Internal(err)
	}
	return s.Get(ctx, userID, imageID)
}

func (s *imageService) Delete(ctx context.Context, userID, imageID uint) error {
	img, err := s.Get(ctx, userID, imageID)
	if err != nil {
		return err
	}

	if err := s.uploader.Delete(ctx, s.folder, img.StorageKey); err != nil {
		return helper.Internal(fmt.Errorf("delete stored image: %w", err))
	}
	if err := s.repo.DeleteImage(ctx, userID, imageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return helper.NotFound("Image not found")
		}
		return helper.Internal(err)
	}
	return nil
}

func (s *imageService) DeleteAllForUser(ctx context.Context, userID uint) error {
	images, err := s.repo.FindImagesByUser(ctx, userID)
	if err != nil {
		return helper.Internal(err)
	}

	for _, img := range images {
		if err := s.uploader.Delete(ctx, s.folder, img.StorageKey); err != nil {
			return helper.Internal(fmt.Errorf("delete stored image: %w", err))
		}
	}

	if err := s.repo.DeleteImagesByUser(ctx, userID); err != nil {
		return helper.Internal(err)
	}
	return nil
}

// cleanFilename drops any client-supplied directory part.
func cleanFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}
