package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. When fromEmail is empty
// the service is disabled and every send becomes a logged no-op, so
// local development works without AWS credentials.
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(cfg)
	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendInvitationEmail sends the activation link for a managed profile
func (s *EmailService) SendInvitationEmail(ctx context.Context, toEmail, adminName, profileName, token string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): invitation to %s", toEmail)
		return nil
	}

	inviteLink := fmt.Sprintf("%s/invite/%s", s.appBaseURL, token)

	subject := fmt.Sprintf("%s invited you to take over a LinkDeck profile", adminName)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #1f2937; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #1f2937; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>You've been invited</h1>
		</div>
		<div class="content">
			<p>Hi,</p>
			<p>%s has set up the profile <strong>%s</strong> on LinkDeck and invited you to take it over.</p>
			<p>Click the button below to accept the invitation and activate the profile:</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Accept Invitation</a>
			</p>
			<p>Or copy and paste this link into your browser:</p>
			<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>
			<p><strong>This invitation expires in 7 days.</strong></p>
			<p>If you weren't expecting this, you can safely ignore this email.</p>
		</div>
		<div class="footer">
			<p>This is an automated email from LinkDeck. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, adminName, profileName, inviteLink, inviteLink)

	textBody := fmt.Sprintf(`Hi,

%s has set up the profile %s on LinkDeck and invited you to take it over.

Accept the invitation and activate the profile:
%s

This invitation expires in 7 days.

If you weren't expecting this, you can safely ignore this email.

---
This is an automated email from LinkDeck. Please do not reply.
`, adminName, profileName, inviteLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendUnlinkedEmail notifies the previous owner that their access to a
// profile was revoked.
func (s *EmailService) SendUnlinkedEmail(ctx context.Context, toEmail, profileName string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): unlink notice to %s", toEmail)
		return nil
	}

	subject := fmt.Sprintf("Your access to %s on LinkDeck was removed", profileName)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 5px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="content">
			<p>Hi,</p>
			<p>The manager of the profile <strong>%s</strong> has removed your access to it on LinkDeck.</p>
			<p>The profile and its content remain under their management.</p>
		</div>
		<div class="footer">
			<p>This is an automated email from LinkDeck. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, profileName)

	textBody := fmt.Sprintf(`Hi,

The manager of the profile %s has removed your access to it on LinkDeck.

The profile and its content remain under their management.

---
This is an automated email from LinkDeck. Please do not reply.
`, profileName)

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

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
