package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// DeliveryScheduledEmailData holds data for the "your turn" email.
type DeliveryScheduledEmailData struct {
	Email       string
	DisplayName string
	GroupName   string
	Period      int
	Duration    int
	ProductRef  string
}

// DrawResultEmailData holds data for the position assignment email.
type DrawResultEmailData struct {
	Email       string
	DisplayName string
	GroupName   string
	Position    int
	Duration    int
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendDeliveryScheduled(ctx context.Context, data *DeliveryScheduledEmailData) error
	SendDrawResult(ctx context.Context, data *DrawResultEmailData) error
}

// Notifier tells members about lifecycle outcomes that concern them. Failures are never fatal to the caller.
type Notifier interface {
	NotifyDrawResult(ctx context.Context, g *Group, memberships []*Membership) error
	NotifyDeliveryCreated(ctx context.Context, g *Group, recipient *Membership, d *Delivery) error
}
