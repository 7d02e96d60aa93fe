// Package mongodb stores reports, authorities and upvotes as MongoDB
// documents.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collections names the collections used by the store.
type Collections struct {
	Reports     string
	Authorities string
	Upvotes     string
}

// Client wraps a connected mongo.Client and the target database.
type Client struct {
	client      *mongo.Client
	db          *mongo.Database
	collections Collections
	timeout     time.Duration
}

// Connect dials MongoDB and pings the primary.
func Connect(ctx context.Context, uri, database string, cols Collections, opTimeout time.Duration) (*Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	if opTimeout <= 0 {
		opTimeout = 8 * time.Second
	}
	return &Client{
		client:      client,
		db:          client.Database(database),
		collections: cols,
		timeout:     opTimeout,
	}, nil
}

// EnsureIndexes creates the unique upvote index and the lookup indexes.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	_, err := c.db.Collection(c.collections.Upvotes).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "report_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_user_report"),
	})
	if err != nil {
		return fmt.Errorf("upvotes index: %w", err)
	}
	_, err = c.db.Collection(c.collections.Authorities).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "authority_name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_authority_name"),
	})
	if err != nil {
		return fmt.Errorf("authorities index: %w", err)
	}
	_, err = c.db.Collection(c.collections.Reports).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetName("idx_user"),
	})
	if err != nil {
		return fmt.Errorf("reports index: %w", err)
	}
	return nil
}

// DropCollections removes the store's collections.
func (c *Client) DropCollections(ctx context.Context) error {
	for _, name := range []string{c.collections.Reports, c.collections.Authorities, c.collections.Upvotes} {
		if err := c.db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}

// Ping checks the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}
