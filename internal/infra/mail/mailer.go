package mail

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// SMTPMailer sends plain-text mail. With no host configured it only logs the
// message; run with LOG_LEVEL=debug locally to read reset links.
type SMTPMailer struct {
	cfg SMTPConfig
	log *zap.Logger
}

func NewSMTPMailer(cfg SMTPConfig, log *zap.Logger) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPMailer{cfg: cfg, log: log}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	if m.cfg.Host == "" {
		m.log.Info("smtp not configured, mail not sent",
			zap.String("to", to),
			zap.String("subject", subject),
		)
		// Bodies carry reset links; only debug logging shows them.
		m.log.Debug("unsent mail body", zap.String("to", to), zap.String("body", body))
		return nil
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + m.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, message); err != nil {
		m.log.Error("smtp send failed", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func SendPasswordReset(m Mailer, to, resetLink string) error {
	body := fmt.Sprintf(`Hello,

We received a request to reset your Legal Forge password.

Open the following link to choose a new password:
%s

This link expires in 1 hour. If you did not ask for it, you can ignore this email.`, resetLink)
	return m.Send(to, "Reset your password", body)
}

func SendWelcome(m Mailer, to, name string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour Legal Forge account is ready. Add your first site to generate its legal documents.", name)
	return m.Send(to, "Welcome to Legal Forge", body)
}
