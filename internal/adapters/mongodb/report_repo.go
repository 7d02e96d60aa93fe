package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/communityeye/communityeye/internal/core/domain"
)

type reportDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	UserID      int64                `bson:"user_id"`
	Description string               `bson:"description"`
	Category    string               `bson:"category"`
	Geolocation domain.GeoFeature    `bson:"geolocation"`
	Authority   *string              `bson:"authority"`
	Image       domain.ImageMetadata `bson:"image"`
	Resolved    bool                 `bson:"resolved"`
	UpvoteCount int64                `bson:"upvote_count"`
	CreatedAt   int64                `bson:"created_at"`
}

func (d reportDoc) toDomain() domain.Report {
	return domain.Report{
		ID:            d.ID.Hex(),
		UserID:        d.UserID,
		Description:   d.Description,
		Category:      d.Category,
		Location:      d.Geolocation.Point(),
		Geolocation:   d.Geolocation,
		Image:         d.Image,
		AuthorityName: d.Authority,
		Resolved:      d.Resolved,
		UpvoteCount:   d.UpvoteCount,
		CreatedAt:     d.CreatedAt,
	}
}

// ReportRepo implements ports.ReportRepository.
type ReportRepo struct {
	c   *Client
	col *mongo.Collection
}

// NewReportRepo creates a new ReportRepo.
func NewReportRepo(c *Client) *ReportRepo {
	return &ReportRepo{c: c, col: c.db.Collection(c.collections.Reports)}
}

func (r *ReportRepo) Insert(ctx context.Context, rep *domain.Report) (string, error) {
	ctx, cancel := r.c.withTimeout(ctx)
	defer cancel()

	doc := reportDoc{
		UserID:      rep.UserID,
		Description: rep.Description,
		Category:    rep.Category,
		Geolocation: domain.NewGeoFeature(rep.Location),
		Authority:   rep.AuthorityName,
		Image:       rep.Image,
		Resolved:    rep.Resolved,
		UpvoteCount: rep.UpvoteCount,
		CreatedAt:   rep.CreatedAt,
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (r *ReportRepo) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	ctx, cancel := r.c.withTimeout(ctx)
	defer cancel()

	var doc reportDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	rep := doc.toDomain()
	return &rep, nil
}

func (r *ReportRepo) List(ctx context.Context) ([]domain.Report, error) {
	return r.find(ctx, bson.M{})
}

func (r *ReportRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Report, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *ReportRepo) find(ctx context.Context, filter bson.M) ([]domain.Report, error) {
	ctx, cancel := r.c.withTimeout(ctx)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	reports := []domain.Report{}
	for cur.Next(ctx) {
		var doc reportDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		reports = append(reports, doc.toDomain())
	}
	return reports, cur.Err()
}

func (r *ReportRepo) MarkResolved(ctx context.Context, id string) error {
	res, err := r.update(ctx, id, bson.M{"$set": bson.M{"resolved": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ReportRepo) IncrementUpvotes(ctx context.Context, id string) (int64, error) {
	res, err := r.update(ctx, id, bson.M{"$inc": bson.M{"upvote_count": 1}})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	ctx, cancel := r.c.withTimeout(ctx)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ReportRepo) update(ctx context.Context, id string, change bson.M) (*mongo.UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	ctx, cancel := r.c.withTimeout(ctx)
	defer cancel()
	return r.col.UpdateOne(ctx, bson.M{"_id": oid}, change)
}
