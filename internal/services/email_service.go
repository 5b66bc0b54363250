package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkglogger "github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/pkg/logger"
)

// EmailService defines the interface for sending login codes
type EmailService interface {
	SendLoginCode(ctx context.Context, email, code string, expiresAt time.Time) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// loginCodeHTMLBody renders the HTML mail body. The code is entity-escaped:
// the symbol alphabet includes '&', and an unescaped code like "...&gt..."
// would display differently from what the admin must type back.
func loginCodeHTMLBody(code string, validMinutes int) string {
	escapedCode := html.EscapeString(code)

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .code { font-family: monospace; font-size: 20px; letter-spacing: 2px; background-color: #f1f3f5; padding: 12px 24px; border-radius: 4px; display: inline-block; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
        .warning { background-color: #fff3cd; padding: 10px; border-left: 4px solid #ffc107; margin: 10px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Your Admin Login Code</h1>
        </div>
        <div class="content">
            <p>Use this one-time code to sign in to the admin console:</p>
            <p><span class="code">%s</span></p>
            <div class="warning">
                <strong>Security Notice:</strong> This code expires in %d minutes and can only be used once.
            </div>
            <p><strong>Didn't request this code?</strong><br>
            If you didn't try to sign in, you can ignore this email. No one can sign in without this code.</p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, escapedCode, validMinutes)
}

// loginCodeTextBody renders the plain text mail body; no escaping here, the
// code appears verbatim
func loginCodeTextBody(code string, validMinutes int) string {
	return fmt.Sprintf(`Your Admin Login Code

Use this one-time code to sign in to the admin console:

%s

Security Notice: This code expires in %d minutes and can only be used once.

Didn't request this code?
If you didn't try to sign in, you can ignore this email. No one can sign in without this code.

This is an automated message. Please do not reply to this email.
`, code, validMinutes)
}

// SendLoginCode sends the one-time login code to the admin
func (s *AWSSESEmailService) SendLoginCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	validMinutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	if validMinutes < 1 {
		validMinutes = 1
	}

	htmlBody := loginCodeHTMLBody(code, validMinutes)
	textBody := loginCodeTextBody(code, validMinutes)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Your admin login code"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send login code via SES",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("login code email sent",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.String("message_id", *result.MessageId))

	return nil
}
