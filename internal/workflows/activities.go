package workflows

import (
	"context"
	"fmt"

	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/core/ports"
)

// NotificationActivities holds the activity implementations for the
// notification workflow.
type NotificationActivities struct {
	Mailer ports.NotificationService
}

// SendAuthorityEmail delivers the notification through the mailer.
func (a *NotificationActivities) SendAuthorityEmail(ctx context.Context, n domain.AuthorityNotification) error {
	if a.Mailer == nil {
		return fmt.Errorf("no mailer configured")
	}
	return a.Mailer.NotifyAuthority(ctx, &n)
}
