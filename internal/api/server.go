package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/SundayYogurt/image_service/config"
	"github.com/SundayYogurt/image_service/infra/database"
	"github.com/SundayYogurt/image_service/infra/queue"
	"github.com/SundayYogurt/image_service/internal/api/rest/handlers"
	"github.com/SundayYogurt/image_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/image_service/internal/clients/smtp"
	"github.com/SundayYogurt/image_service/internal/helper"
	"github.com/SundayYogurt/image_service/internal/helper/utils"
	"github.com/SundayYogurt/image_service/internal/interfaces"
	"github.com/SundayYogurt/image_service/internal/repository"
	"github.com/SundayYogurt/image_service/internal/services"
	"github.com/SundayYogurt/image_service/pkg/cloudinary"
	"github.com/SundayYogurt/image_service/pkg/disk"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

const (
	uploadsRoute = "/uploads"
	diskFolder   = "images"
	// multipart framing on top of the file itself
	bodyOverhead = 1 << 20
)

// Deps is everything NewApp needs besides configuration.
type Deps struct {
	DB       *gorm.DB
	Auth     helper.Auth
	Mailer   interfaces.MailSender
	Uploader interfaces.Uploader
	Folder   string
	Logger   *slog.Logger

	UserOptions []services.UserServiceOption
}

// NewApp builds the fiber app with every route registered.
func NewApp(cfg config.Config, deps Deps) (*fiber.App, error) {
	logger := deps.Logger

	app := fiber.New(fiber.Config{
		AppName:               "image_service",
		BodyLimit:             int(cfg.MaxUploadBytes) + bodyOverhead,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	// ---------- Middleware ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.ClientURL,
		AllowHeaders: "Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	if cfg.StorageDriver == config.StorageDisk {
		app.Static(uploadsRoute, cfg.UploadDir)
	}

	// ---------- Mail ----------
	mailSvc, err := services.NewMailService(services.MailConfig{
		From:      cfg.MailFrom,
		FromName:  cfg.MailFromName,
		VerifyURL: cfg.AppBaseURL + "/api/verify-email",
		ResetURL:  cfg.ClientURL + "/reset-password",
	}, deps.Mailer)
	if err != nil {
		return nil, err
	}

	// ---------- Repositories ----------
	userRepo := repository.NewUserRepository(deps.DB)
	imageRepo := repository.NewImageRepository(deps.DB)

	// ---------- Services ----------
	imageSvc := services.NewImageService(imageRepo, deps.Uploader, deps.Folder, cfg.MaxUploadBytes, logger)
	userSvc := services.NewUserService(userRepo, imageSvc, mailSvc, deps.Auth, logger, deps.UserOptions...)

	// ---------- Handlers ----------
	handlers.NewUserHandler(userSvc, deps.Auth).SetupRoutes(app)
	handlers.NewImageHandler(imageSvc, deps.Auth, cfg.MaxUploadBytes).SetupRoutes(app)

	// ---------- Health ----------
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return app, nil
}

// StartServer opens the store, wires the collaborators chosen by cfg and
// serves until ctx is cancelled, then shuts down within cfg.ShutdownTimeout.
func StartServer(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	// ---------- DB ----------
	db, err := database.Open(cfg.DatabaseDSN, cfg.IsProd())
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("database close", "error", err)
		}
	}()
	logger.Info("database connected", "dialect", db.Dialector.Name())

	if err := database.Migrate(db); err != nil {
		return err
	}
	logger.Info("migration successful")

	// ---------- Infra ----------
	authHelper, err := helper.SetupAuth(cfg.JWTSecret, cfg.BcryptCost)
	if err != nil {
		return err
	}

	mailer, closeMailer, err := newMailSender(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeMailer.Close(); err != nil {
			logger.Warn("mail sender close", "error", err)
		}
	}()

	uploader, folder, err := newUploader(cfg)
	if err != nil {
		return err
	}

	app, err := NewApp(cfg, Deps{
		DB:       db,
		Auth:     authHelper,
		Mailer:   mailer,
		Uploader: uploader,
		Folder:   folder,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	// ---------- Listen ----------
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ServerPort, "storage", cfg.StorageDriver, "mail", cfg.MailTransport)
		errCh <- app.Listen(cfg.ServerPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newMailSender(cfg config.Config, logger *slog.Logger) (interfaces.MailSender, io.Closer, error) {
	switch cfg.MailTransport {
	case config.MailTransportKafka:
		producer := queue.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaUsername, cfg.KafkaPassword, cfg.KafkaTLS)
		logger.Info("mail via kafka", "broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic)
		return services.NewQueuedMailSender(producer), producer, nil
	case config.MailTransportSMTP:
		return smtp.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown mail transport %q", cfg.MailTransport)
	}
}

func newUploader(cfg config.Config) (interfaces.Uploader, string, error) {
	switch cfg.StorageDriver {
	case config.StorageCloudinary:
		up, err := cloudinary.New(cfg.CloudinaryUrl)
		if err != nil {
			return nil, "", err
		}
		return up, cfg.CloudinaryFolder, nil
	case config.StorageDisk:
		return disk.NewUploader(cfg.UploadDir, cfg.AppBaseURL+uploadsRoute), diskFolder, nil
	default:
		return nil, "", fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("unhandled error", "path", ctx.Path(), "error", err)
		}
		return utils.ResponseError(ctx, code, err.Error())
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
