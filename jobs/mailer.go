package jobs

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// MailerConfig holds SMTP settings for alert delivery.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Mailer sends alert notification emails over SMTP.
type Mailer struct {
	cfg    MailerConfig
	client *mail.Client
}

// NewMailer constructs the SMTP client. Authentication is only enabled when a
// username is configured, so local mail catchers work out of the box.
func NewMailer(cfg MailerConfig) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: %w", err)
	}
	return &Mailer{cfg: cfg, client: client}, nil
}

// SendAlert delivers one alert notification.
func (m *Mailer) SendAlert(ctx context.Context, payload AlertEmailPayload) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return err
	}
	if err := msg.To(m.cfg.To); err != nil {
		return err
	}
	msg.Subject(fmt.Sprintf("[WarePulse] KPI alert: %s", payload.KpiCode))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"%s\n\nValue: %g\nThreshold: %g\nRaised: %s\n",
		payload.Message, payload.Value, payload.Threshold,
		payload.CreatedAt.UTC().Format("2006-01-02 15:04 MST")))
	return m.client.DialAndSendWithContext(ctx, msg)
}
