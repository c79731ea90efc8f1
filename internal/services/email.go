package services

import (
	"context"
	"fmt"
	"log/slog"

	"savingscircle/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendDeliveryScheduled tells a member their payout for a period has been scheduled.
func (s *emailService) SendDeliveryScheduled(ctx context.Context, data *domain.DeliveryScheduledEmailData) error {
	if data == nil {
		return fmt.Errorf("delivery scheduled data is nil")
	}
	return s.send(ctx, "delivery_scheduled", data.Email, data)
}

// SendDrawResult tells a member which position they drew.
func (s *emailService) SendDrawResult(ctx context.Context, data *domain.DrawResultEmailData) error {
	if data == nil {
		return fmt.Errorf("draw result data is nil")
	}
	return s.send(ctx, "draw_result", data.Email, data)
}

func (s *emailService) send(ctx context.Context, templateName, to string, data any) error {
	subject, htmlBody, textBody, err := s.renderer.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", templateName, err)
	}
	if err := s.mailer.Send(ctx, to, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", templateName, err)
	}
	s.logger.DebugContext(ctx, "email sent", "template", templateName, "to", to)
	return nil
}
