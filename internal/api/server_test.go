package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/SundayYogurt/image_service/config"
	"github.com/SundayYogurt/image_service/internal/dto"
	"github.com/SundayYogurt/image_service/internal/helper"
	"github.com/SundayYogurt/image_service/internal/testutil"
	"github.com/SundayYogurt/image_service/pkg/disk"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var tokenRe = regexp.MustCompile(`token=([0-9a-f]+)`)

type outbox struct {
	mu   sync.Mutex
	sent []dto.MailMessage
}

func (o *outbox) Send(_ context.Context, msg dto.MailMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) lastToken(t *testing.T, subject string) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].Subject == subject {
			m := tokenRe.FindStringSubmatch(o.sent[i].HTML)
			require.Len(t, m, 2)
			return m[1]
		}
	}
	t.Fatalf("no %q mail sent", subject)
	return ""
}

type testServer struct {
	app       *fiber.App
	mail      *outbox
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	uploadDir := t.TempDir()
	cfg := config.Config{
		AppBaseURL:     "http://api.test",
		ClientURL:      "http://app.test",
		StorageDriver:  config.StorageDisk,
		UploadDir:      uploadDir,
		MaxUploadBytes: 1 << 20,
		MailFrom:       "no-reply@images.test",
		MailFromName:   "Images",
	}

	auth, err := helper.SetupAuth("test-secret", bcrypt.MinCost)
	require.NoError(t, err)

	mail := &outbox{}
	app, err := NewApp(cfg, Deps{
		DB:       testutil.NewDB(t),
		Auth:     auth,
		Mailer:   mail,
		Uploader: disk.NewUploader(uploadDir, cfg.AppBaseURL+uploadsRoute),
		Folder:   diskFolder,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	return &testServer{app: app, mail: mail, uploadDir: uploadDir}
}

func (s *testServer) do(t *testing.T, req *http.Request, token string) (int, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp.StatusCode, body
}

func (s *testServer) json(t *testing.T, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(t, req, token)
}

func (s *testServer) upload(t *testing.T, token, filename string, data []byte) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.do(t, req, token)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestAccountLifecycle(t *testing.T) {
	s := newTestServer(t)
	ann := map[string]string{"name": "Ann", "email": "ann@x.com", "password": "pw1"}
	login := func(password string) (int, map[string]any) {
		return s.json(t, http.MethodPost, "/api/login", "", map[string]string{"email": "ann@x.com", "password": password})
	}

	status, body := s.json(t, http.MethodPost, "/api/signup", "", ann)
	require.Equal(t, http.StatusOK, status, body)
	assert.NotContains(t, body, "token")
	verifyToken := s.mail.lastToken(t, "Verify your email")

	status, body = s.json(t, http.MethodPost, "/api/signup", "", ann)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email already exists", body["error"])

	status, _ = login("pw1")
	assert.Equal(t, http.StatusForbidden, status, "unverified login")

	status, _ = s.json(t, http.MethodGet, "/api/verify-email?token="+verifyToken, "", nil)
	require.Equal(t, http.StatusOK, status)
	status, body = s.json(t, http.MethodGet, "/api/verify-email?token="+verifyToken, "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid token", body["error"])

	status, body = login("wrong")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid credentials", body["error"])

	status, body = s.json(t, http.MethodPost, "/api/login", "", map[string]string{"email": "bob@x.com", "password": "pw1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User not found", body["error"])

	status, body = login("pw1")
	require.Equal(t, http.StatusOK, status)
	session, _ := body["token"].(string)
	require.NotEmpty(t, session)

	status, body = s.json(t, http.MethodGet, "/api/account", session, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ann@x.com", body["email"])
	assert.Equal(t, true, body["isVerified"])
	assert.NotContains(t, body, "password")

	status, _ = s.json(t, http.MethodGet, "/api/account", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.json(t, http.MethodGet, "/api/account", "garbage", nil)
	assert.Equal(t, http.StatusForbidden, status)

	// forgot / reset
	status, _ = s.json(t, http.MethodPost, "/api/forgot-password", "", map[string]string{"email": "bob@x.com"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.json(t, http.MethodPost, "/api/forgot-password", "", map[string]string{"email": "ann@x.com"})
	require.Equal(t, http.StatusOK, status)
	resetToken := s.mail.lastToken(t, "Reset your password")

	status, _ = s.json(t, http.MethodPost, "/api/reset-password", "", map[string]string{"token": resetToken, "newPass": "pw2"})
	require.Equal(t, http.StatusOK, status)
	status, body = s.json(t, http.MethodPost, "/api/reset-password", "", map[string]string{"token": resetToken, "newPass": "pw3"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid or expired token", body["error"])

	status, _ = login("pw1")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = login("pw2")
	assert.Equal(t, http.StatusOK, status)

	// authenticated password change
	status, _ = s.json(t, http.MethodPut, "/api/account/password", session, map[string]string{"current": "pw1", "newPass": "pw3"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.json(t, http.MethodPut, "/api/account/password", session, map[string]string{"current": "pw2", "newPass": "pw3"})
	assert.Equal(t, http.StatusOK, status)
	status, _ = login("pw3")
	assert.Equal(t, http.StatusOK, status)

	status, body = s.json(t, http.MethodPut, "/api/account", session, map[string]string{"name": "Annie"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Annie", body["name"])
}

func TestImagesAndAccountDeletion(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.json(t, http.MethodPost, "/api/signup", "", map[string]string{"name": "Ann", "email": "ann@x.com", "password": "pw1"})
	require.Equal(t, http.StatusOK, status)
	status, _ = s.json(t, http.MethodGet, "/api/verify-email?token="+s.mail.lastToken(t, "Verify your email"), "", nil)
	require.Equal(t, http.StatusOK, status)
	status, body := s.json(t, http.MethodPost, "/api/login", "", map[string]string{"email": "ann@x.com", "password": "pw1"})
	require.Equal(t, http.StatusOK, status)
	session := body["token"].(string)

	status, _ = s.upload(t, "", "a.png", pngBytes(t, 2, 2))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.upload(t, session, "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "only jpg/jpeg/png/gif/webp allowed", body["error"])

	status, body = s.upload(t, session, "cat.png", pngBytes(t, 5, 4))
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "cat.png", body["filename"])
	assert.Equal(t, "image/png", body["type"])
	assert.EqualValues(t, 5, body["width"])
	assert.EqualValues(t, 4, body["height"])
	assert.NotContains(t, body, "storageKey")

	url, _ := body["url"].(string)
	require.True(t, strings.HasPrefix(url, "http://api.test/uploads/images/"), url)
	id := int(body["id"].(float64))
	imagePath := "/api/images/" + strconv.Itoa(id)

	// served from the static route
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, strings.TrimPrefix(url, "http://api.test"), nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, body = s.json(t, http.MethodGet, "/api/images", session, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["images"], 1)

	status, body = s.json(t, http.MethodPatch, imagePath, session, map[string]string{"filename": "kitty.png"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "kitty.png", body["filename"])

	status, _ = s.json(t, http.MethodGet, "/api/images/999", session, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.json(t, http.MethodGet, "/api/images/abc", session, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	stored := filepath.Join(s.uploadDir, "images", filepath.Base(url))
	_, err = os.Stat(stored)
	require.NoError(t, err)

	status, _ = s.json(t, http.MethodDelete, "/api/account", session, nil)
	require.Equal(t, http.StatusOK, status)

	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	// the session token outlives the account
	status, body = s.json(t, http.MethodGet, "/api/account", session, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["error"])

	status, _ = s.json(t, http.MethodPost, "/api/login", "", map[string]string{"email": "ann@x.com", "password": "pw1"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	status, body := s.json(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	status, body = s.json(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body["error"])
}

func TestSignupValidation(t *testing.T) {
	s := newTestServer(t)

	status, body := s.json(t, http.MethodPost, "/api/signup", "", map[string]string{"name": "Ann", "email": "not-an-email", "password": "pw1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "email must be a valid email address", body["error"])

	status, body = s.json(t, http.MethodPost, "/api/signup", "", map[string]string{"email": "ann@x.com", "password": "pw1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "name is required", body["error"])
}
