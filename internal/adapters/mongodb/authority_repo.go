package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/pkg/geospatial"
)

// authorityDoc mirrors the catalogue record shape:
// {authority_name, authority_type, area: GeoJSON geometry, email_address}.
type authorityDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"authority_name"`
	Type         string             `bson:"authority_type"`
	Area         bson.Raw           `bson:"area"`
	ContactEmail string             `bson:"email_address,omitempty"`
}

func (d authorityDoc) toDomain() (domain.Authority, error) {
	ext, err := bson.MarshalExtJSON(d.Area, false, false)
	if err != nil {
		return domain.Authority{}, fmt.Errorf("authority %s: area: %w", d.Name, err)
	}
	area, err := geospatial.DecodeArea(ext)
	if err != nil {
		return domain.Authority{}, fmt.Errorf("authority %s: %w", d.Name, err)
	}
	return domain.Authority{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Type:         domain.AuthorityType(d.Type),
		Area:         area,
		ContactEmail: d.ContactEmail,
	}, nil
}

// AuthorityRepo implements ports.AuthorityRepository.
type AuthorityRepo struct {
	c   *Client
	col *mongo.Collection
}

// NewAuthorityRepo creates a new AuthorityRepo.
func NewAuthorityRepo(c *Client) *AuthorityRepo {
	return &AuthorityRepo{c: c, col: c.db.Collection(c.collections.Authorities)}
}

// List returns authorities in insertion order. Records whose area does not
// decode are logged and left out.
func (r *AuthorityRepo) List(ctx context.Context) ([]domain.Authority, error) {
	ctx, cancel := r.c.withTimeout(ctx)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []authorityDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return usableAuthorities(ctx, docs), nil
}

func usableAuthorities(ctx context.Context, docs []authorityDoc) []domain.Authority {
	auths := make([]domain.Authority, 0, len(docs))
	for _, doc := range docs {
		a, err := doc.toDomain()
		if err != nil {
			slog.WarnContext(ctx, "skipping authority with malformed area", "name", doc.Name, "error", err)
			continue
		}
		auths = append(auths, a)
	}
	return auths
}

func (r *AuthorityRepo) GetByName(ctx context.Context, name string) (*domain.Authority, error) {
	ctx, cancel := r.c.withTimeout(ctx)
	defer cancel()

	var doc authorityDoc
	if err := r.col.FindOne(ctx, bson.M{"authority_name": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AuthorityRepo) Upsert(ctx context.Context, a *domain.Authority) error {
	data, err := geospatial.EncodeArea(a.Area)
	if err != nil {
		return fmt.Errorf("encode area of %s: %w", a.Name, err)
	}
	var area bson.M
	if err := bson.UnmarshalExtJSON(data, false, &area); err != nil {
		return fmt.Errorf("convert area of %s: %w", a.Name, err)
	}

	ctx, cancel := r.c.withTimeout(ctx)
	defer cancel()

	set := bson.M{
		"authority_type": string(a.Type),
		"area":           area,
		"email_address":  a.ContactEmail,
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"authority_name": a.Name},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}
	if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
		a.ID = oid.Hex()
	}
	return nil
}
