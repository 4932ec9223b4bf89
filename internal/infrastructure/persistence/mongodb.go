package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	mongoAppName        = "airfare-collector"
	mongoConnectTimeout = 10 * time.Second
)

// MongoOptions selects the raw response database
type MongoOptions struct {
	URI      string
	Database string
	Username string
	Password string
	// MaxPoolSize bounds concurrent raw response writes; zero keeps the driver default
	MaxPoolSize uint64
}

// mongoClientOptions builds driver options. Credentials apply only when both are set,
// so a URI that already carries them is left alone.
func mongoClientOptions(opts MongoOptions) (*options.ClientOptions, error) {
	if opts.URI == "" {
		return nil, errors.New("mongodb uri is required")
	}
	if opts.Database == "" {
		return nil, errors.New("mongodb database is required")
	}

	clientOptions := options.Client().
		ApplyURI(opts.URI).
		SetAppName(mongoAppName).
		SetConnectTimeout(mongoConnectTimeout).
		SetServerSelectionTimeout(mongoConnectTimeout)
	if opts.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.Username != "" && opts.Password != "" {
		clientOptions.SetAuth(options.Credential{
			Username: opts.Username,
			Password: opts.Password,
		})
	}
	return clientOptions, clientOptions.Validate()
}

// NewMongoClient connects, checks the primary answers and returns the raw response database
func NewMongoClient(ctx context.Context, opts MongoOptions) (*mongo.Client, *mongo.Database, error) {
	clientOptions, err := mongoClientOptions(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid mongodb options: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, client.Database(opts.Database), nil
}

// DisconnectMongo closes the client, waiting at most five seconds
func DisconnectMongo(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}
