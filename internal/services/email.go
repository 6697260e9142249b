package services

import (
  "context"
  "fmt"

  "github.com/sendgrid/rest"
  "github.com/sendgrid/sendgrid-go"
  "github.com/sendgrid/sendgrid-go/helpers/mail"

  "github.com/sineva-org/sineva-backend/internal/config"
  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/templates"
)

const sendGridHost = "https://api.sendgrid.com"

// OTPSender delivers a one-time code to an address.
type OTPSender interface {
  SendOTP(ctx context.Context, toEmail string, code string) error
}

type EmailService interface {
  OTPSender
  SendEmail(ctx context.Context, toEmail string, subject string, plainText string, htmlContent string) error
}

type emailService struct {
  log               *logger.Logger
  apiKey            string
  host              string
  fromEmail         string
  fromName          string
  validMinutes      int
}

// NewEmailService builds a SendGrid backed sender. validMinutes is the code
// lifetime quoted in the message body.
func NewEmailService(cfg config.SendGridConfig, validMinutes int, log *logger.Logger) (EmailService, error) {
  serviceLog := log.With("service", "EmailService")
  if cfg.APIKey == "" {
    return nil, fmt.Errorf("Missing SENDGRID_API_KEY configuration")
  }
  return &emailService{
    log:          serviceLog,
    apiKey:       cfg.APIKey,
    host:         sendGridHost,
    fromEmail:    cfg.FromEmail,
    fromName:     cfg.FromName,
    validMinutes: validMinutes,
  }, nil
}

func (es *emailService) SendOTP(ctx context.Context, toEmail string, code string) error {
  data := templates.OTPEmailData{
    Code:         code,
    ValidMinutes: es.validMinutes,
    SupportEmail: es.fromEmail,
  }
  html, err := templates.RenderOTPHTML(data)
  if err != nil {
    es.log.Warn("Failed to render otp email", "error", err)
    return fmt.Errorf("render otp email: %w", err)
  }
  return es.SendEmail(ctx, toEmail, templates.OTPSubject, templates.RenderOTPText(data), html)
}

func (es *emailService) SendEmail(ctx context.Context, toEmail string, subject string, plainText string, htmlContent string) error {
  from := mail.NewEmail(es.fromName, es.fromEmail)
  to := mail.NewEmail("", toEmail)
  message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)

  // A fresh request per send; sendgrid.Client mutates its shared Body.
  request := sendgrid.GetRequest(es.apiKey, "/v3/mail/send", es.host)
  request.Method = rest.Post
  request.Body = mail.GetRequestBody(message)

  response, err := sendgrid.MakeRequestWithContext(ctx, request)
  if err != nil {
    es.log.Warn("Sendgrid email send failed", "error", err)
    return fmt.Errorf("sendgrid send: %w", err)
  }
  if response.StatusCode >= 300 {
    es.log.Warn("Sendgrid rejected email", "statusCode", response.StatusCode, "body", response.Body)
    return fmt.Errorf("sendgrid HTTP %d: %s", response.StatusCode, response.Body)
  }
  es.log.Info("Email sent", "to", toEmail, "statusCode", response.StatusCode)
  return nil
}
