package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/communityeye/communityeye/internal/adapters/mail"
	natsadapter "github.com/communityeye/communityeye/internal/adapters/nats"
	"github.com/communityeye/communityeye/internal/core/ports"
	"github.com/communityeye/communityeye/internal/pkg/config"
	"github.com/communityeye/communityeye/internal/pkg/logging"
	"github.com/communityeye/communityeye/internal/workflows"
)

func main() {
	cfg, err := config.Load("communityeye-notifier")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	var mailer ports.NotificationService = mail.LogSender{}
	if cfg.Mail.Host != "" {
		mailer = mail.NewSender(mail.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
	} else {
		slog.Warn("mail.host not set, authority emails are only logged")
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.NotifyAuthorityWorkflow)
	w.RegisterActivity(&workflows.NotificationActivities{Mailer: mailer})

	// NATS -> Temporal
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	dispatcher := workflows.NewDispatcher(c, cfg.Temporal.TaskQueue)
	if err := sub.SubscribeNotifications(ctx, dispatcher.Dispatch); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("notifier worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
