package postgres

import (
	"context"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// UpvoteRepo implements ports.UpvoteRepository. The (user_id, report_id)
// primary key is what rejects concurrent duplicates.
type UpvoteRepo struct {
	db *DB
}

// NewUpvoteRepo creates a new UpvoteRepo.
func NewUpvoteRepo(db *DB) *UpvoteRepo {
	return &UpvoteRepo{db: db}
}

func (r *UpvoteRepo) Exists(ctx context.Context, userID int64, reportID string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM upvotes WHERE user_id = $1 AND report_id = $2)
	`, userID, reportID).Scan(&exists)
	if err != nil {
		if mapped := mapErr(err); mapped == domain.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return exists, nil
}

func (r *UpvoteRepo) Insert(ctx context.Context, u *domain.Upvote) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO upvotes (user_id, report_id, created_at) VALUES ($1, $2, $3)
	`, u.UserID, u.ReportID, u.Timestamp)
	return mapErr(err)
}
