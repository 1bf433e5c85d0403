// utils/email.go
package utils

import (
	"fmt"
	"html"
	"log/slog"

	"go-ecommerce/config"
	"go-ecommerce/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Email providers
const (
	ProviderPostmark = "postmark"
	ProviderSendGrid = "sendgrid"
)

// Sender delivers one HTML email.
type Sender interface {
	Send(toEmail, subject, htmlContent string) error
}

type postmarkSender struct {
	client *postmark.Client
	from   string
}

func (s *postmarkSender) Send(toEmail, subject, htmlContent string) error {
	_, err := s.client.SendEmail(postmark.Email{
		From:     s.from,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	return err
}

type sendgridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

func (s *sendgridSender) Send(toEmail, subject, htmlContent string) error {
	msg := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", toEmail), htmlContent, htmlContent)
	resp, err := s.client.Send(msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// EmailService renders the transactional emails and hands them to a Sender.
type EmailService struct {
	sender Sender
	name   string
	log    *slog.Logger
}

// NewEmailService initializes the sender selected by cfg.Provider.
func NewEmailService(cfg config.Email, log *slog.Logger) (*EmailService, error) {
	const op = "utils.NewEmailService"

	var sender Sender
	switch cfg.Provider {
	case ProviderPostmark:
		if cfg.PostmarkKey == "" {
			return nil, fmt.Errorf("%s: POSTMARK_API_TOKEN is not set", op)
		}
		sender = &postmarkSender{
			client: postmark.NewClient(cfg.PostmarkKey, ""),
			from:   fmt.Sprintf("%s <%s>", cfg.SenderName, cfg.SenderEmail),
		}
	case ProviderSendGrid:
		if cfg.SendGridKey == "" {
			return nil, fmt.Errorf("%s: SENDGRID_API_KEY is not set", op)
		}
		sender = &sendgridSender{
			client: sendgrid.NewSendClient(cfg.SendGridKey),
			from:   mail.NewEmail(cfg.SenderName, cfg.SenderEmail),
		}
	default:
		return nil, fmt.Errorf("%s: unknown email provider %q", op, cfg.Provider)
	}

	return NewEmailServiceWithSender(sender, cfg.SenderName, log), nil
}

// NewEmailServiceWithSender wraps an existing Sender.
func NewEmailServiceWithSender(sender Sender, senderName string, log *slog.Logger) *EmailService {
	return &EmailService{sender: sender, name: senderName, log: log}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	if err := es.sender.Send(toEmail, subject, htmlContent); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	es.log.Debug("email sent", slog.String("to", toEmail), slog.String("subject", subject))
	return nil
}

// SendVerificationEmail sends an email verification link to the user
func (es *EmailService) SendVerificationEmail(toEmail, verificationLink string) error {
	subject := "Verify Your Email"
	htmlContent := fmt.Sprintf(
		"<strong>Please verify your email by clicking on the following link:</strong> <a href=\"%s\">Verify Email</a><br><br>The link expires in 10 minutes.",
		html.EscapeString(verificationLink),
	)

	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendSubscriptionEmail thanks a newsletter subscriber.
func (es *EmailService) SendSubscriptionEmail(toEmail string) error {
	subject := "Thanks for subscribing"
	htmlContent := fmt.Sprintf(
		"<p>Hello,</p><p>Thank you for subscribing to our newsletter.</p><p>See you in our upcoming emails!</p><br/><p>Best regards,<br/>The %s team</p>",
		html.EscapeString(es.name),
	)

	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendOrderStatusEmail tells the buyer that their order moved to a new status.
func (es *EmailService) SendOrderStatusEmail(toEmail, buyerName, orderCode string, status models.OrderStatus) error {
	subject := fmt.Sprintf("Order %s is now %s", orderCode, status)
	htmlContent := fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Your order <strong>%s</strong> is now <strong>%s</strong>.<br><br>Thank you for shopping with us!",
		html.EscapeString(buyerName),
		html.EscapeString(orderCode),
		status,
	)

	return es.SendEmail(toEmail, subject, htmlContent)
}
