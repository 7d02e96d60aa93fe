package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender implements ports.NotificationService by emailing the authority.
type Sender struct {
	cfg SMTPConfig
}

// NewSender returns a Sender for the given SMTP relay.
func NewSender(cfg SMTPConfig) *Sender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Sender{cfg: cfg}
}

// NotifyAuthority sends one email describing the report. It is not retried.
func (s *Sender) NotifyAuthority(ctx context.Context, n *domain.AuthorityNotification) error {
	if n.ContactEmail == "" {
		return fmt.Errorf("authority %q has no email address", n.AuthorityName)
	}

	msg, err := buildMessage(s.cfg.From, n)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", n.ContactEmail, err)
	}

	slog.Info("authority notified", "report_id", n.ReportID, "authority", n.AuthorityName)
	return nil
}

func buildMessage(from string, n *domain.AuthorityNotification) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(n.ContactEmail); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject("New Report Assigned")
	msg.SetBodyString(gomail.TypeTextPlain, Body(n))
	return msg, nil
}

// Body renders the plain-text notification body.
func Body(n *domain.AuthorityNotification) string {
	return fmt.Sprintf("A new report has been assigned to %s.\n\nReport ID: %s\nDescription: %s\nImage URL: %s\n",
		n.AuthorityName, n.ReportID, n.Description, n.ImageURL)
}

// LogSender is a NotificationService that only logs. Used when no SMTP
// relay is configured.
type LogSender struct{}

// NotifyAuthority logs the notification.
func (LogSender) NotifyAuthority(_ context.Context, n *domain.AuthorityNotification) error {
	if n.ContactEmail == "" {
		return fmt.Errorf("authority %q has no email address", n.AuthorityName)
	}
	slog.Info("sending email", "to", n.ContactEmail, "report_id", n.ReportID, "authority", n.AuthorityName)
	return nil
}
