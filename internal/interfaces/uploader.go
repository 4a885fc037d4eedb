package interfaces

import "context"

// Uploader stores image bytes under folder/filename and returns the public URL.
type Uploader interface {
	UploadBytes(ctx context.Context, folder string, filename string, b []byte) (string, error)
	Delete(ctx context.Context, folder string, filename string) error
}
