package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// Subjects used on the bus.
const (
	ReportEventsSubject   = "civic.reports."
	ReportEventsWildcard  = "civic.reports.>"
	NotificationSubject   = "civic.notify.authority"
	notificationsWildcard = "civic.notify.>"
)

// Publisher implements ports.EventPublisher and ports.NotificationService
// using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	streams := []nats.StreamConfig{
		{
			Name:      "REPORT_EVENTS",
			Subjects:  []string{ReportEventsWildcard},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:       "AUTHORITY_NOTIFICATIONS",
			Subjects:   []string{notificationsWildcard},
			Retention:  nats.WorkQueuePolicy,
			MaxAge:     72 * time.Hour,
			Storage:    nats.FileStorage,
			Duplicates: 10 * time.Minute,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// PublishReportEvent publishes a lifecycle event on civic.reports.<type>.
func (p *Publisher) PublishReportEvent(ctx context.Context, event *domain.ReportEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ReportEventsSubject+string(event.Type), data, nats.Context(ctx))
	return err
}

// NotifyAuthority queues a notification request. The message id is derived
// from the report so a repeated publish inside the stream's duplicate
// window is dropped by the server.
func (p *Publisher) NotifyAuthority(ctx context.Context, n *domain.AuthorityNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(NotificationSubject, data,
		nats.MsgId("notify-"+n.ReportID),
		nats.Context(ctx),
	)
	return err
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
