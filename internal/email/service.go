package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/vbhan/go-shop/internal/logging"
)

// Message is one outbound email. Text and HTML are alternative bodies.
type Message struct {
	To      string
	From    string
	Subject string
	Text    string
	HTML    string
}

// Service sends email over SMTP. All sending is fire-and-forget from the
// caller's point of view: methods are designed to run in a goroutine and
// report failure only through their error return, which callers log.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromAddress  string
	baseURL      string
	logger       *logging.Logger
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, fromAddress, baseURL string, logger *logging.Logger) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromAddress:  fromAddress,
		baseURL:      baseURL,
		logger:       logger,
	}
}

// SendWelcomeEmail confirms a successful signup.
func (s *Service) SendWelcomeEmail(ctx context.Context, toEmail string) error {
	msg := Message{
		To:      toEmail,
		From:    s.fromAddress,
		Subject: "Signup succeeded",
		Text:    "You successfully signed up!",
		HTML:    "<h1>You successfully signed up!</h1>",
	}

	if err := s.Send(ctx, msg); err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}

	s.logger.Info("welcome email sent", "email", toEmail)
	return nil
}

// SendPasswordResetEmail sends the recovery link embedding the reset token.
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, token string) error {
	resetLink := fmt.Sprintf("%s/reset/%s", s.baseURL, token)

	body, err := renderPasswordResetBody(resetLink)
	if err != nil {
		return fmt.Errorf("render password reset email: %w", err)
	}

	msg := Message{
		To:      toEmail,
		From:    s.fromAddress,
		Subject: "Password reset",
		Text:    "You requested a password reset. Open this link to set a new password: " + resetLink,
		HTML:    body,
	}

	if err := s.Send(ctx, msg); err != nil {
		return fmt.Errorf("send password reset email: %w", err)
	}

	s.logger.Info("password reset email sent", "email", toEmail)
	return nil
}

// Send delivers a single message over SMTP.
func (s *Service) Send(_ context.Context, msg Message) error {
	from := msg.From
	if from == "" {
		from = s.fromAddress
	}

	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	const boundary = "mixed-boundary-go-shop"
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	if msg.Text != "" {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		buf.WriteString(msg.Text)
		buf.WriteString("\r\n")
	}
	if msg.HTML != "" {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		buf.WriteString(msg.HTML)
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, from, []string{msg.To}, buf.Bytes())
}

func renderPasswordResetBody(resetLink string) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body>
    <p>You requested a password reset.</p>
    <p>Click this <a href="{{.ResetLink}}">link</a> to set a new password.</p>
    <p>If you didn't request a password reset, you can safely ignore this email.</p>
    <p>This link will expire in 1 hour.</p>
</body>
</html>
`

	t, err := template.New("passwordReset").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	data := struct {
		ResetLink string
	}{
		ResetLink: resetLink,
	}

	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
