package ports

import (
	"context"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// ReportRepository persists reports. Lookups of unknown ids return
// domain.ErrNotFound.
type ReportRepository interface {
	Insert(ctx context.Context, report *domain.Report) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	List(ctx context.Context) ([]domain.Report, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Report, error)
	MarkResolved(ctx context.Context, id string) error
	// IncrementUpvotes adds one to the report's upvote count and returns the
	// number of records modified.
	IncrementUpvotes(ctx context.Context, id string) (int64, error)
	Delete(ctx context.Context, id string) error
}

// AuthorityRepository persists authorities. List returns insertion order.
type AuthorityRepository interface {
	List(ctx context.Context) ([]domain.Authority, error)
	GetByName(ctx context.Context, name string) (*domain.Authority, error)
	Upsert(ctx context.Context, authority *domain.Authority) error
}

// UpvoteRepository persists upvotes. Insert returns domain.ErrDuplicate when
// the (user, report) pair already exists.
type UpvoteRepository interface {
	Exists(ctx context.Context, userID int64, reportID string) (bool, error)
	Insert(ctx context.Context, upvote *domain.Upvote) error
}
