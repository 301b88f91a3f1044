// Package mongodb provides the MongoDB client used by the evaluation record sink.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/evorag/pkg/component"
	options "github.com/kart-io/evorag/pkg/options/mongodb"
)

// Client wraps a mongo client bound to one database.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	opts     *options.Options
}

var _ component.Checker = (*Client)(nil)

// New connects to MongoDB and verifies the connection with a ping.
func New(ctx context.Context, opts *options.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("mongodb options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid mongodb options: %w", utilerrors.NewAggregate(errs))
	}

	clientOpts := mongoopts.Client().ApplyURI(opts.BuildURI())
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
	}
	if opts.ServerSelectionTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(opts.ServerSelectionTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Client{
		client:   client,
		database: client.Database(opts.Database),
		opts:     opts,
	}, nil
}

// Collection returns the configured collection handle.
func (c *Client) Collection() *mongo.Collection {
	return c.database.Collection(c.opts.Collection)
}

// Name implements component.Checker.
func (c *Client) Name() string {
	return "mongodb"
}

// Ping implements component.Checker.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}
