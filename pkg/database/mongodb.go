package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoClient MongoDB connection holding the GridFS object buckets
type MongoClient struct {
	client   *mongo.Client
	database *mongo.Database
}

// MongoDBConfig MongoDB configuration
type MongoDBConfig struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	MinPoolSize uint64
	// Buckets GridFS buckets whose lookup index is created on connect
	Buckets []string
}

// NewMongoClient connects, pings and prepares the configured buckets
func NewMongoClient(config *MongoDBConfig) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(config.URI)
	if config.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(config.MaxPoolSize)
	}
	if config.MinPoolSize > 0 {
		opts.SetMinPoolSize(config.MinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	c := &MongoClient{client: client, database: client.Database(config.Database)}
	for _, bucket := range config.Buckets {
		if err := c.EnsureBucketIndex(ctx, bucket); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
	}

	log.Printf("[INFO] [Mongo] Connected to %s (%d buckets)", config.Database, len(config.Buckets))
	return c, nil
}

// EnsureBucketIndex indexes <bucket>.files by filename and newest revision,
// the lookup every object read and replace performs
func (c *MongoClient) EnsureBucketIndex(ctx context.Context, bucket string) error {
	_, err := c.database.Collection(bucket+".files").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "filename", Value: 1}, {Key: "uploadDate", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to index bucket %s: %w", bucket, err)
	}
	return nil
}

// Close disconnects the client
func (c *MongoClient) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Database returns the configured database
func (c *MongoClient) Database() *mongo.Database {
	return c.database
}
