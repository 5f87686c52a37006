package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/podfacts/backend/internal/storage"
	"github.com/podfacts/backend/pkg/logger"
)

type Config struct {
	URI                string
	Database           string
	EpisodesCollection string
	FactsCollection    string
	ConnectTimeout     time.Duration
}

// Client implements storage.Store on top of two MongoDB collections.
type Client struct {
	client   *mongo.Client
	episodes *mongo.Collection
	facts    *mongo.Collection
}

var _ storage.Store = (*Client)(nil)

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	db := client.Database(cfg.Database)

	logger.Info("Mongo client initialized",
		zap.String("database", cfg.Database),
		zap.String("episodes", cfg.EpisodesCollection),
		zap.String("facts", cfg.FactsCollection),
	)

	return &Client{
		client:   client,
		episodes: db.Collection(cfg.EpisodesCollection),
		facts:    db.Collection(cfg.FactsCollection),
	}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
