package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SundayYogurt/image_service/internal/dto"
	"github.com/SundayYogurt/image_service/internal/interfaces"
)

// MailHandler turns queued mail messages into SMTP sends.
type MailHandler struct {
	sender interfaces.MailSender
	logger *slog.Logger
}

func NewMailHandler(sender interfaces.MailSender, logger *slog.Logger) *MailHandler {
	return &MailHandler{sender: sender, logger: logger}
}

func (h *MailHandler) HandleMessage(ctx context.Context, message []byte) error {
	var msg dto.MailMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return fmt.Errorf("invalid mail payload: %w", err)
	}
	if msg.To == "" {
		return fmt.Errorf("mail payload has no recipient")
	}

	if err := h.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send to %s: %w", msg.To, err)
	}

	h.logger.InfoContext(ctx, "mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}
