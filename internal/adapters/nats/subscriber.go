package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// Subscriber consumes notification requests from JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS and makes sure the streams exist.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeNotifications hands every notification request to handler.
// Malformed payloads are terminated; handler errors are redelivered up to
// three times, so handler must be idempotent per report.
func (s *Subscriber) SubscribeNotifications(ctx context.Context, handler func(ctx context.Context, n *domain.AuthorityNotification) error) error {
	sub, err := s.js.Subscribe(NotificationSubject, func(msg *nats.Msg) {
		var n domain.AuthorityNotification
		if err := json.Unmarshal(msg.Data, &n); err != nil {
			slog.Warn("dropping malformed notification", "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &n); err != nil {
			slog.Warn("notification handler failed", "report_id", n.ReportID, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("authority-notifier"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
