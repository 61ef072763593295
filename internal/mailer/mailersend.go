package mailer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

const sendTimeout = 10 * time.Second

type MailerSend struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSend {
	return &MailerSend{
		client: mailersend.NewMailersend(apiKey),
		from:   mailersend.From{Name: fromName, Email: fromEmail},
	}
}

func (m *MailerSend) SendCode(ctx context.Context, email, code string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	body := codeMessage(code)
	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: email}})
	msg.SetSubject(body.subject)
	msg.SetText(body.text)
	msg.SetHTML(body.html)

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("mailersend: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("mailersend: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}
