// File: /services/email_service.go
package services

import (
	"fmt"
	"html"
	"log"
	"time"

	"campus-events-api/config"

	"gopkg.in/gomail.v2"
)

// Mailer sends the transactional emails the API needs.
type Mailer interface {
	SendPasswordResetEmail(email, name, resetLink string) error
	SendRegistrationConfirmation(email, name, activityTitle string, startDate time.Time) error
}

type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer
}

func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)

	return &EmailService{
		config: cfg,
		dialer: dialer,
	}
}

func (es *EmailService) newMessage(to, subject string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	return m
}

// SendPasswordResetEmail mails a single-use reset link.
func (es *EmailService) SendPasswordResetEmail(email, name, resetLink string) error {
	m := es.newMessage(email, es.config.FromName+" - Reset your password")

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Reset your password</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .btn { display: inline-block; background: #007bff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 10px 0; }
        .footer { text-align: center; margin-top: 20px; color: #666; font-size: 14px; }
    </style>
</head>
<body>
    <div class="container">
        <h2>Hello %s,</h2>
        <p>We received a request to reset your password. The link below is valid for 15 minutes.</p>
        <p><a class="btn" href="%s">Reset password</a></p>
        <p>If you didn't request a reset, you can ignore this email.</p>
        <div class="footer">
            <p>This is an automated email, please do not reply.</p>
        </div>
    </div>
</body>
</html>`, html.EscapeString(name), html.EscapeString(resetLink))

	textBody := fmt.Sprintf(`
Hello %s,

We received a request to reset your password. Open the link below within 15 minutes:

%s

If you didn't request a reset, you can ignore this email.
`, name, resetLink)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := es.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("Password reset email sent to %s", email)
	return nil
}

// SendRegistrationConfirmation acknowledges an event signup.
func (es *EmailService) SendRegistrationConfirmation(email, name, activityTitle string, startDate time.Time) error {
	m := es.newMessage(email, "You're registered: "+activityTitle)

	when := startDate.Format("Monday, January 2, 2006 at 3:04 PM MST")
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Registration confirmed</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <h2>Hi %s,</h2>
    <p>Your registration for <strong>%s</strong> is confirmed.</p>
    <p>The event starts %s.</p>
    <p>See you there!</p>
</body>
</html>`, html.EscapeString(name), html.EscapeString(activityTitle), html.EscapeString(when))

	textBody := fmt.Sprintf("Hi %s,\n\nYour registration for %s is confirmed.\nThe event starts %s.\n\nSee you there!\n", name, activityTitle, when)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := es.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("Registration confirmation sent to %s for %s", email, activityTitle)
	return nil
}
