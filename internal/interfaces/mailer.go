package interfaces

import (
	"context"

	"github.com/SundayYogurt/image_service/internal/dto"
)

type MailSender interface {
	Send(ctx context.Context, msg dto.MailMessage) error
}
