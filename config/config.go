package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageDisk       = "disk"
	StorageCloudinary = "cloudinary"

	MailTransportSMTP  = "smtp"
	MailTransportKafka = "kafka"
)

type Config struct {
	Env             string        `env:"ENV" envDefault:"dev"`
	ServerPort      string        `env:"SERVER_PORT" envDefault:":8080"`
	DatabaseDSN     string        `env:"DATABASE_DSN"`
	JWTSecret       string        `env:"JWT_SECRET"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"10"`
	AppBaseURL      string        `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	ClientURL       string        `env:"CLIENT_URL" envDefault:"http://localhost:5173"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	StorageDriver    string `env:"STORAGE_DRIVER" envDefault:"disk"`
	UploadDir        string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	MaxUploadBytes   int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	CloudinaryUrl    string `env:"CLOUDINARY_URL"`
	CloudinaryFolder string `env:"CLOUDINARY_FOLDER" envDefault:"image_service"`

	MailTransport string `env:"MAIL_TRANSPORT" envDefault:"smtp"`
	SMTPHost      string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser      string `env:"SMTP_USER"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
	MailFrom      string `env:"MAIL_FROM"`
	MailFromName  string `env:"MAIL_FROM_NAME" envDefault:"Image Service"`

	KafkaBroker   string `env:"KAFKA_BROKER"`
	KafkaTopic    string `env:"KAFKA_TOPIC" envDefault:"mail.outbound"`
	KafkaGroupID  string `env:"KAFKA_GROUP_ID" envDefault:"mail-worker"`
	KafkaUsername string `env:"KAFKA_USERNAME"`
	KafkaPassword string `env:"KAFKA_PASSWORD"`
	KafkaTLS      bool   `env:"KAFKA_TLS" envDefault:"false"`
}

// Load reads the API server configuration. A missing secret or credential is
// returned as an error; callers treat it as fatal.
func Load() (Config, error) {
	cfg, err := parse()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.validateAPI(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadWorker reads the configuration of the mail worker, which only needs
// Kafka and SMTP settings.
func LoadWorker() (Config, error) {
	cfg, err := parse()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.validateWorker(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func parse() (Config, error) {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Overload(); err != nil {
			slog.Debug("env file not loaded", "error", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.MailTransport = strings.ToLower(strings.TrimSpace(cfg.MailTransport))
	cfg.AppBaseURL = strings.TrimRight(cfg.AppBaseURL, "/")
	cfg.ClientURL = strings.TrimRight(cfg.ClientURL, "/")
	return cfg, nil
}

func (c Config) validateAPI() error {
	var errs []error

	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		errs = append(errs, errors.New("DATABASE_DSN is required"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}

	switch c.StorageDriver {
	case StorageDisk:
		if strings.TrimSpace(c.UploadDir) == "" {
			errs = append(errs, errors.New("UPLOAD_DIR is required for disk storage"))
		}
	case StorageCloudinary:
		if c.CloudinaryUrl == "" {
			errs = append(errs, errors.New("CLOUDINARY_URL is required for cloudinary storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	switch c.MailTransport {
	case MailTransportSMTP:
		errs = append(errs, c.validateSMTP()...)
	case MailTransportKafka:
		errs = append(errs, c.validateKafka()...)
		if c.MailFrom == "" {
			errs = append(errs, errors.New("MAIL_FROM is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_TRANSPORT %q", c.MailTransport))
	}

	return errors.Join(errs...)
}

func (c Config) validateWorker() error {
	errs := c.validateKafka()
	errs = append(errs, c.validateSMTP()...)
	return errors.Join(errs...)
}

func (c Config) validateSMTP() []error {
	var errs []error
	if c.SMTPHost == "" {
		errs = append(errs, errors.New("SMTP_HOST is required"))
	}
	if c.SMTPUser == "" || c.SMTPPassword == "" {
		errs = append(errs, errors.New("SMTP_USER and SMTP_PASSWORD are required"))
	}
	if c.MailFrom == "" {
		errs = append(errs, errors.New("MAIL_FROM is required"))
	}
	return errs
}

func (c Config) validateKafka() []error {
	var errs []error
	if c.KafkaBroker == "" {
		errs = append(errs, errors.New("KAFKA_BROKER is required"))
	}
	if c.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required"))
	}
	return errs
}
