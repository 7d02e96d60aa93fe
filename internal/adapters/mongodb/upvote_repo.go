package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/communityeye/communityeye/internal/core/domain"
)

type upvoteDoc struct {
	UserID    int64     `bson:"user_id"`
	ReportID  string    `bson:"report_id"`
	Timestamp time.Time `bson:"timestamp"`
}

// UpvoteRepo implements ports.UpvoteRepository. Duplicates are rejected by
// the unique (user_id, report_id) index created in EnsureIndexes.
type UpvoteRepo struct {
	c   *Client
	col *mongo.Collection
}

// NewUpvoteRepo creates a new UpvoteRepo.
func NewUpvoteRepo(c *Client) *UpvoteRepo {
	return &UpvoteRepo{c: c, col: c.db.Collection(c.collections.Upvotes)}
}

func (r *UpvoteRepo) Exists(ctx context.Context, userID int64, reportID string) (bool, error) {
	ctx, cancel := r.c.withTimeout(ctx)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"user_id": userID, "report_id": reportID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *UpvoteRepo) Insert(ctx context.Context, u *domain.Upvote) error {
	ctx, cancel := r.c.withTimeout(ctx)
	defer cancel()

	_, err := r.col.InsertOne(ctx, upvoteDoc{UserID: u.UserID, ReportID: u.ReportID, Timestamp: u.Timestamp})
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicate
	}
	return err
}
