package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Uploader writes images below Root and serves them from BaseURL, which is
// expected to be mounted as a static route over Root.
type Uploader struct {
	Root    string
	BaseURL string
}

func NewUploader(root, baseURL string) *Uploader {
	return &Uploader{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (u *Uploader) UploadBytes(ctx context.Context, folder string, filename string, b []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p, err := u.path(folder, filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return u.BaseURL + "/" + path.Join(folder, filename), nil
}

// Delete is idempotent: a missing file is not an error.
func (u *Uploader) Delete(ctx context.Context, folder string, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := u.path(folder, filename)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func (u *Uploader) path(folder, filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	if strings.Contains(folder, "..") {
		return "", fmt.Errorf("invalid folder %q", folder)
	}
	return filepath.Join(u.Root, filepath.FromSlash(folder), filename), nil
}
