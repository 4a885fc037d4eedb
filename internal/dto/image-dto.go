package dto

import "github.com/SundayYogurt/image_service/internal/domain"

type RenameImageRequest struct {
	Filename string `json:"filename" validate:"required,max=255"`
}

type ImageListResponse struct {
	Images []domain.Image `json:"images"`
}

// ImageUpload is an uploaded file already read into memory.
type ImageUpload struct {
	Filename string
	Bytes    []byte
}
