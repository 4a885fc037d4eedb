package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"

	"github.com/SundayYogurt/image_service/internal/dto"
	"github.com/SundayYogurt/image_service/internal/interfaces"
	"github.com/SundayYogurt/image_service/internal/templates"
)

const (
	verifySubject = "Verify your email"
	resetSubject  = "Reset your password"
)

type MailService interface {
	SendVerifyEmail(ctx context.Context, to, name, token string) error
	SendResetPasswordEmail(ctx context.Context, to, name, token string) error
}

type MailConfig struct {
	From     string
	FromName string
	// VerifyURL receives ?token=<verify token>; it points at GET /api/verify-email.
	VerifyURL string
	// ResetURL receives ?token=<reset token>; it is the client's reset page.
	ResetURL string
}

type mailService struct {
	cfg    MailConfig
	sender interfaces.MailSender
	tmpl   *template.Template
}

func NewMailService(cfg MailConfig, sender interfaces.MailSender) (MailService, error) {
	tmpl, err := template.ParseFS(templates.FS, "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &mailService{cfg: cfg, sender: sender, tmpl: tmpl}, nil
}

func (s *mailService) SendVerifyEmail(ctx context.Context, to, name, token string) error {
	body, err := s.render("verify-email.html", map[string]string{
		"Name": name,
		"Link": tokenLink(s.cfg.VerifyURL, token),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, to, verifySubject, body)
}

func (s *mailService) SendResetPasswordEmail(ctx context.Context, to, name, token string) error {
	body, err := s.render("reset-password.html", map[string]string{
		"Name":      name,
		"Link":      tokenLink(s.cfg.ResetURL, token),
		"ExpiresIn": fmt.Sprintf("%d minutes", int(ResetTokenTTL.Minutes())),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, to, resetSubject, body)
}

func (s *mailService) render(name string, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (s *mailService) send(ctx context.Context, to, subject, html string) error {
	err := s.sender.Send(ctx, dto.MailMessage{
		From:     s.cfg.From,
		FromName: s.cfg.FromName,
		To:       to,
		Subject:  subject,
		HTML:     html,
	})
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func tokenLink(base, token string) string {
	return fmt.Sprintf("%s?token=%s", base, url.QueryEscape(token))
}

// queuedMailSender publishes messages for the mail worker instead of talking
// to SMTP from the request path.
type queuedMailSender struct {
	producer interfaces.ProducerHandler
}

func NewQueuedMailSender(producer interfaces.ProducerHandler) interfaces.MailSender {
	return &queuedMailSender{producer: producer}
}

func (q *queuedMailSender) Send(ctx context.Context, msg dto.MailMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode mail message: %w", err)
	}
	return q.producer.PublishMessage(ctx, []byte(msg.To), payload)
}
