package service

import (
	"context"
	"fmt"
	"html"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/shopspring/decimal"

	"skiipper/internal/logger"
)

// sesSender is the part of the SES client the email service uses
type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesSender
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. An empty fromEmail yields a
// disabled service that logs and drops every message.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		logger.Info("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	logger.Debug("Initializing email service with AWS SES", "region", awsRegion, "from", fromEmail)

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("Email service enabled", "from", fromEmail, "region", awsRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL), nil
}

func newEmailService(client sesSender, fromEmail, fromName, appBaseURL string) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendWeeklyReport emails a user their skip count and savings for the week
func (s *EmailService) SendWeeklyReport(ctx context.Context, toEmail string, skips int, savings decimal.Decimal) error {
	if !s.enabled {
		logger.Info("Skipping email send (service disabled)", "kind", "weekly-report", "to", toEmail)
		return nil
	}

	amount := savings.StringFixed(2)
	skipWord := "skips"
	if skips == 1 {
		skipWord = "skip"
	}

	subject := fmt.Sprintf("Your week: %d %s, $%s saved", skips, skipWord, amount)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2e9e6a; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.figure { font-size: 28px; font-weight: bold; color: #2e9e6a; }
		.button { display: inline-block; padding: 12px 30px; background-color: #2e9e6a; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Your Weekly Skiipper Report</h1>
		</div>
		<div class="content">
			<p>Here is how your week went:</p>
			<p class="figure">%d %s</p>
			<p class="figure">$%s saved</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Open Skiipper</a>
			</p>
		</div>
		<div class="footer">
			<p>This is an automated email from Skiipper. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, skips, skipWord, amount, html.EscapeString(s.appBaseURL))

	textBody := fmt.Sprintf(`Here is how your week went:

%d %s
$%s saved

Open Skiipper: %s

---
This is an automated email from Skiipper. Please do not reply.
`, skips, skipWord, amount, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendWelcomeEmail sends a welcome email to new users
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		logger.Info("Skipping email send (service disabled)", "kind", "welcome", "to", toEmail)
		return nil
	}

	subject := "Welcome to Skiipper!"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Hi %s,</p>
	<p>Thanks for joining Skiipper. Pick the habits you want to cut back on, skip them when you can, and watch the savings add up.</p>
	<p><a href="%s">Get started</a></p>
	<p style="font-size: 12px; color: #666;">This is an automated email from Skiipper. Please do not reply.</p>
</body>
</html>
`, html.EscapeString(toName), html.EscapeString(s.appBaseURL))

	textBody := fmt.Sprintf(`Hi %s,

Thanks for joining Skiipper. Pick the habits you want to cut back on, skip them when you can, and watch the savings add up.

Get started: %s

---
This is an automated email from Skiipper. Please do not reply.
`, toName, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if result != nil && result.MessageId != nil {
		logger.Debug("SES accepted message", "message_id", *result.MessageId)
	}
	logger.Info("Email sent successfully", "to", toEmail, "subject", subject)
	return nil
}
