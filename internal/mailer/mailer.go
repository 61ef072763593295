// Package mailer delivers one-time sign-in codes by email.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/config"
)

type Service interface {
	SendCode(ctx context.Context, email, code string) error
}

// New picks a transport from cfg: MailerSend when an API key is set, SMTP
// when a host is set, otherwise the dev mailer that only logs.
func New(cfg config.MailConfig, logger *slog.Logger) Service {
	switch {
	case cfg.MailerSendKey != "":
		logger.Info("mailer: using mailersend", "from", cfg.From)
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.From)
	case cfg.SMTPHost != "":
		logger.Info("mailer: using smtp", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		return NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.From, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
	logger.Info("mailer: using dev mailer, codes are logged")
	return NewDev(logger)
}

type message struct {
	subject string
	text    string
	html    string
}

func codeMessage(code string) message {
	return message{
		subject: "Your Studio verification code",
		text:    fmt.Sprintf("Your verification code is %s. It expires in a few minutes.", code),
		html: fmt.Sprintf(`<h2>Sign in to Studio</h2>
<p>Your verification code is <strong style="font-size: 24px; letter-spacing: 4px;">%s</strong></p>
<p>If you didn't request this code, you can ignore this email.</p>`, code),
	}
}

// Dev writes codes to the log instead of sending them.
type Dev struct {
	logger *slog.Logger
}

func NewDev(logger *slog.Logger) *Dev {
	return &Dev{logger: logger}
}

func (d *Dev) SendCode(ctx context.Context, email, code string) error {
	d.logger.InfoContext(ctx, "dev mail: verification code", "to", email, "code", code)
	return nil
}
