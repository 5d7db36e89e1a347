package notify

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"
	"time"
)

// Sender delivers a fully formatted message.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSender returns an SMTP sender, or a logging sender when no host is configured.
func NewSender(cfg SMTPConfig, logger *slog.Logger) Sender {
	if cfg.Host == "" {
		logger.Info("SMTP_HOST tanımlı değil, e-postalar sadece loglanacak")
		return &LoggingSender{logger: logger}
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth:   auth,
		from:   cfg.From,
		logger: logger,
	}
}

type SMTPSender struct {
	addr   string
	auth   smtp.Auth
	from   string
	logger *slog.Logger
}

func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if err := smtp.SendMail(s.addr, s.auth, s.from, to, rawMessage); err != nil {
		return fmt.Errorf("smtp error: %w", err)
	}
	s.logger.InfoContext(ctx, "e-posta gönderildi", "to", to, "subject", subject)
	return nil
}

// LoggingSender only logs; used in development.
type LoggingSender struct {
	logger *slog.Logger
}

func (s *LoggingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	s.logger.InfoContext(ctx, "e-posta (sadece log)", "to", to, "subject", subject, "size", len(rawMessage))
	return nil
}

// BuildMessage formats a plain-text UTF-8 message with the essential headers.
func BuildMessage(from string, to []string, subject, body string, now time.Time) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	sb.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	sb.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	sb.WriteString("\r\n")
	return []byte(sb.String())
}
