package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/financialstatementflow/internal/config"
	"github.com/Lllllllleong/financialstatementflow/internal/gcp"
	"go.mongodb.org/mongo-driver/mongo"
)

// NewConnector returns a Connector building the record and blob stores named in cfg.
// Clients are only created when the connector first runs.
func NewConnector(cfg config.StoreConfig) Connector {
	return func(ctx context.Context) (*Backend, error) {
		var (
			closers     []func() error
			mongoClient *mongo.Client
		)
		closeAll := func() error {
			var errs []error
			for i := len(closers) - 1; i >= 0; i-- {
				errs = append(errs, closers[i]())
			}
			return errors.Join(errs...)
		}
		mongoDB := func() (*mongo.Database, error) {
			if mongoClient == nil {
				c, err := ConnectMongo(ctx, cfg.URI)
				if err != nil {
					return nil, err
				}
				mongoClient = c
				closers = append(closers, func() error { return c.Disconnect(context.Background()) })
			}
			return mongoClient.Database(cfg.Database), nil
		}

		b := &Backend{Close: closeAll}

		switch cfg.Records {
		case config.RecordsFirestore:
			client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
			if err != nil {
				return nil, err
			}
			closers = append(closers, client.Close)
			b.Records = NewFirestoreRecords(client, cfg.Collection)
		case config.RecordsMongo:
			db, err := mongoDB()
			if err != nil {
				_ = closeAll()
				return nil, err
			}
			b.Records = NewMongoRecords(db, cfg.Collection)
		case config.RecordsMemory:
			b.Records = NewMemoryRecords()
		default:
			return nil, fmt.Errorf("unknown record store %q", cfg.Records)
		}

		switch cfg.Blobs {
		case config.BlobsGCS:
			client, err := storage.NewClient(ctx)
			if err != nil {
				_ = closeAll()
				return nil, fmt.Errorf("failed to create storage client: %w", err)
			}
			closers = append(closers, client.Close)
			b.Blobs = NewGCSBlobs(client, cfg.Bucket)
		case config.BlobsGridFS:
			db, err := mongoDB()
			if err != nil {
				_ = closeAll()
				return nil, err
			}
			blobs, err := NewGridFSBlobs(db)
			if err != nil {
				_ = closeAll()
				return nil, err
			}
			b.Blobs = blobs
		case config.BlobsMinio:
			blobs, err := NewMinioBlobs(cfg.Minio)
			if err != nil {
				_ = closeAll()
				return nil, err
			}
			if err := blobs.EnsureBucket(ctx); err != nil {
				_ = closeAll()
				return nil, err
			}
			b.Blobs = blobs
		case config.BlobsMemory:
			b.Blobs = NewMemoryBlobs()
		default:
			_ = closeAll()
			return nil, fmt.Errorf("unknown blob store %q", cfg.Blobs)
		}

		return b, nil
	}
}
