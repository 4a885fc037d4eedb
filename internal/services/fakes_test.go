package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/SundayYogurt/image_service/internal/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeMail records the plain tokens that would have been emailed.
type fakeMail struct {
	mu           sync.Mutex
	verifyTokens []string
	resetTokens  []string
}

func (f *fakeMail) SendVerifyEmail(_ context.Context, _, _, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyTokens = append(f.verifyTokens, token)
	return nil
}

func (f *fakeMail) SendResetPasswordEmail(_ context.Context, _, _, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetTokens = append(f.resetTokens, token)
	return nil
}

func (f *fakeMail) lastVerify(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.verifyTokens)
	return f.verifyTokens[len(f.verifyTokens)-1]
}

func (f *fakeMail) lastReset(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.resetTokens)
	return f.resetTokens[len(f.resetTokens)-1]
}

type memUploader struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
}

func newMemUploader() *memUploader {
	return &memUploader{objects: map[string][]byte{}}
}

func (m *memUploader) UploadBytes(_ context.Context, folder, filename string, b []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.objects[folder+"/"+filename] = b
	return "mem://" + folder + "/" + filename, nil
}

func (m *memUploader) Delete(_ context.Context, folder, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, folder+"/"+filename)
	return nil
}

func (m *memUploader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func assertAppError(t *testing.T, err error, status int, msg string) {
	t.Helper()
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, status, appErr.Status)
	if msg != "" {
		assert.Equal(t, msg, appErr.Message)
	}
}
