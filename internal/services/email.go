package services

import (
  "context"
  "fmt"
  "os"

  "github.com/sendgrid/sendgrid-go"
  "github.com/sendgrid/sendgrid-go/helpers/mail"

  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/types"
)

type EmailService interface {
  SendEmail(ctx context.Context, toEmail string, subject string, plainText string, htmlContent string) error
  SendWelcomeEmail(ctx context.Context, user *types.User) error
}

type emailService struct {
  log              *logger.Logger
  client           *sendgrid.Client
  fromSupportEmail string
}

func NewEmailService(log *logger.Logger) (EmailService, error) {
  serviceLog := log.With("service", "EmailService")
  apiKey := os.Getenv("SENDGRID_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("Missing SENDGRID_API_KEY environment variable")
  }
  fromSupport := os.Getenv("SENDGRID_SUPPORT_EMAIL")
  if fromSupport == "" {
    serviceLog.Warn("SENDGRID_SUPPORT_EMAIL not set; using fallback no-reply@greenbot.eco")
    fromSupport = "no-reply@greenbot.eco"
  }
  client := sendgrid.NewSendClient(apiKey)

  return &emailService{
    log:              serviceLog,
    client:           client,
    fromSupportEmail: fromSupport,
  }, nil
}

func (es *emailService) SendEmail(ctx context.Context, toEmail string, subject string, plainText string, htmlContent string) error {
  from := mail.NewEmail("GreenBot", es.fromSupportEmail)
  to := mail.NewEmail("", toEmail)
  message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
  response, err := es.client.SendWithContext(ctx, message)
  if err != nil {
    es.log.Warn("Sendgrid email send failed", "error", err)
    return err
  }
  es.log.Info("Email sent", "to", toEmail, "statusCode", response.StatusCode)
  return nil
}

func (es *emailService) SendWelcomeEmail(ctx context.Context, user *types.User) error {
  subject := "Welcome to GreenBot"
  plainText := fmt.Sprintf(
    "Hi %s,\n\nWelcome to GreenBot! Ask our eco assistants anything about sustainable living, waste reduction, nature, energy or climate.\n\nThe GreenBot Team",
    user.FirstName,
  )
  htmlContent := fmt.Sprintf(
    "<p>Hi %s,</p><p>Welcome to <strong>GreenBot</strong>! Ask our eco assistants anything about sustainable living, waste reduction, nature, energy or climate.</p><p>The GreenBot Team</p>",
    user.FirstName,
  )
  return es.SendEmail(ctx, user.Email, subject, plainText, htmlContent)
}
