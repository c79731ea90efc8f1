package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"savingscircle/internal/domain"
)

const (
	ProviderSES  = "ses"
	ProviderNoop = "noop"
)

type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
}

// sesAPI is the part of the SES client the mailer uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// NewMailer picks the delivery notice transport. Anything other than "ses" only logs.
func NewMailer(config MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	switch config.Provider {
	case ProviderSES:
		if config.FromAddress == "" {
			return nil, fmt.Errorf("ses mailer requires a from address")
		}
		creds := credentials.NewStaticCredentialsProvider(config.SES.AccessKeyID, config.SES.SecretAccessKey, "")
		client := ses.NewFromConfig(aws.Config{
			Region:      config.SES.Region,
			Credentials: aws.NewCredentialsCache(creds),
		})
		return &sesMailer{
			client:      client,
			fromAddress: config.FromAddress,
			fromName:    config.FromName,
			logger:      logger,
		}, nil
	case ProviderNoop, "":
		return &noopMailer{logger: logger}, nil
	default:
		logger.Warn("unknown email provider, using noop", "provider", config.Provider)
		return &noopMailer{logger: logger}, nil
	}
}

type sesMailer struct {
	client      sesAPI
	fromAddress string
	fromName    string
	logger      *slog.Logger
}

func utf8(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

func (s *sesMailer) Send(ctx context.Context, to, subject, html, text string) error {
	source := s.fromAddress
	if s.fromName != "" {
		source = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}
	body := &types.Body{}
	if html != "" {
		body.Html = utf8(html)
	}
	if text != "" {
		body.Text = utf8(text)
	}
	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(source),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message:     &types.Message{Subject: utf8(subject), Body: body},
	})
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", to, err)
	}
	s.logger.DebugContext(ctx, "notice mailed", "message_id", aws.ToString(out.MessageId))
	return nil
}

type noopMailer struct {
	logger *slog.Logger
}

func (n *noopMailer) Send(ctx context.Context, to, subject, html, text string) error {
	n.logger.InfoContext(ctx, "notice not mailed, no provider configured", "to", to, "subject", subject)
	return nil
}
