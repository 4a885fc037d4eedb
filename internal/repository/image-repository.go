package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SundayYogurt/image_service/internal/domain"
	"gorm.io/gorm"
)

type ImageRepository interface {
	CreateImage(ctx context.Context, img *domain.Image) error
	FindImagesByUser(ctx context.Context, userID uint) ([]domain.Image, error)
	FindImageByID(ctx context.Context, userID, imageID uint) (*domain.Image, error)
	RenameImage(ctx context.Context, userID, imageID uint, filename string) error
	DeleteImage(ctx context.Context, userID, imageID uint) error
	DeleteImagesByUser(ctx context.Context, userID uint) error
}

type imageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) CreateImage(ctx context.Context, img *domain.Image) error {
	if img == nil {
		return errors.New("nil image")
	}
	if err := r.db.WithContext(ctx).Create(img).Error; err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	return nil
}

// FindImagesByUser lists the owner's images, newest first.
func (r *imageRepository) FindImagesByUser(ctx context.Context, userID uint) ([]domain.Image, error) {
	images := make([]domain.Image, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("find images by user: %w", err)
	}
	return images, nil
}

// FindImageByID only matches images owned by userID.
func (r *imageRepository) FindImageByID(ctx context.Context, userID, imageID uint) (*domain.Image, error) {
	img := &domain.Image{}
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", imageID, userID).
		First(img).Error
	if err != nil {
		return nil, notFound(err, "find image")
	}
	return img, nil
}

// RenameImage updates the filename of an image owned by userID. It never
// inserts, so a concurrently deleted image stays deleted.
func (r *imageRepository) RenameImage(ctx context.Context, userID, imageID uint, filename string) error {
	res := r.db.WithContext(ctx).Model(&domain.Image{}).
		Where("id = ? AND user_id = ?", imageID, userID).
		Update("filename", filename)
	return affected(res, "rename image")
}

func (r *imageRepository) DeleteImage(ctx context.Context, userID, imageID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", imageID, userID).
		Delete(&domain.Image{})
	return affected(res, "delete image")
}

func (r *imageRepository) DeleteImagesByUser(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.Image{}).Error
	if err != nil {
		return fmt.Errorf("delete images by user: %w", err)
	}
	return nil
}

