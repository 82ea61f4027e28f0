package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Mailer sends customer-facing transactional mail over SMTP.
type Mailer struct {
	client *mail.Client
	from   string
	shop   string
}

func NewMailer(host string, port int, username, password, from, shopName string) (*Mailer, error) {
	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
	)
	if err != nil {
		return nil, err
	}
	return &Mailer{client: client, from: from, shop: shopName}, nil
}

func (m *Mailer) OrderRejected(ctx context.Context, email, orderID, reason string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(email); err != nil {
		return err
	}
	msg.Subject(fmt.Sprintf("%s: your order was declined", m.shop))

	body := fmt.Sprintf(
		"Your order %s was declined by the merchant and a full refund has been initiated.\n", orderID)
	if reason != "" {
		body += "\nReason: " + reason + "\n"
	}
	body += "\nThe refund will reach your original payment method in a few business days.\n"
	msg.SetBodyString(mail.TypeTextPlain, body)

	return m.client.DialAndSendWithContext(ctx, msg)
}

// Noop satisfies the notifier surface when mail is not configured.
type Noop struct{}

func (Noop) OrderRejected(context.Context, string, string, string) error { return nil }
