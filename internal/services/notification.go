package services

import (
	"context"
	"errors"
	"fmt"

	"savingscircle/internal/domain"
)

type emailNotifier struct {
	emails domain.EmailService
}

// NewEmailNotifier returns a Notifier that emails members. Members without an email are skipped.
func NewEmailNotifier(emails domain.EmailService) domain.Notifier {
	return &emailNotifier{emails: emails}
}

func (n *emailNotifier) NotifyDrawResult(ctx context.Context, g *domain.Group, memberships []*domain.Membership) error {
	var errs []error
	for _, m := range memberships {
		if m.Email == "" || m.Position == nil {
			continue
		}
		err := n.emails.SendDrawResult(ctx, &domain.DrawResultEmailData{
			Email:       m.Email,
			DisplayName: m.DisplayName,
			GroupName:   g.Name,
			Position:    *m.Position,
			Duration:    g.Duration,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("member %s: %w", m.MemberID, err))
		}
	}
	return errors.Join(errs...)
}

func (n *emailNotifier) NotifyDeliveryCreated(ctx context.Context, g *domain.Group, recipient *domain.Membership, d *domain.Delivery) error {
	if recipient == nil || recipient.Email == "" {
		return nil
	}
	return n.emails.SendDeliveryScheduled(ctx, &domain.DeliveryScheduledEmailData{
		Email:       recipient.Email,
		DisplayName: recipient.DisplayName,
		GroupName:   g.Name,
		Period:      d.Period,
		Duration:    g.Duration,
		ProductRef:  d.ProductRef,
	})
}
