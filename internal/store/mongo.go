package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/Lllllllleong/financialstatementflow/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongo dials the cluster with the strict Stable API and pings it.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1).
		SetStrict(true).
		SetDeprecationErrors(true)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// MongoRecords keeps reference records in a collection keyed by ObjectID.
type MongoRecords struct {
	coll *mongo.Collection
}

func NewMongoRecords(db *mongo.Database, collection string) *MongoRecords {
	return &MongoRecords{coll: db.Collection(collection)}
}

func (s *MongoRecords) Insert(ctx context.Context, rec models.StatementRecord) (string, error) {
	res, err := s.coll.InsertOne(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("failed to insert reference document: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Sprint(res.InsertedID), nil
	}
	return oid.Hex(), nil
}

func (s *MongoRecords) Get(ctx context.Context, id string) (*models.StatementRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var rec models.StatementRecord
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reference document: %w", err)
	}
	rec.ID = id
	return &rec, nil
}

// GridFSBlobs stores files in GridFS; the file id is the ObjectID hex.
// A bucket handle is opened per call because GridFS deadlines are bucket state.
type GridFSBlobs struct {
	db *mongo.Database
}

func NewGridFSBlobs(db *mongo.Database) (*GridFSBlobs, error) {
	if _, err := gridfs.NewBucket(db); err != nil {
		return nil, fmt.Errorf("failed to open GridFS bucket: %w", err)
	}
	return &GridFSBlobs{db: db}, nil
}

func (s *GridFSBlobs) open(ctx context.Context) (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to open GridFS bucket: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return bucket, nil
}

func (s *GridFSBlobs) Put(ctx context.Context, name string, data []byte, meta models.FileMetadata) (string, error) {
	bucket, err := s.open(ctx)
	if err != nil {
		return "", err
	}
	opts := options.GridFSUpload().SetMetadata(meta)
	oid, err := bucket.UploadFromStream(name, bytes.NewReader(data), opts)
	if err != nil {
		return "", fmt.Errorf("failed to upload to GridFS: %w", err)
	}
	return oid.Hex(), nil
}

func (s *GridFSBlobs) Get(ctx context.Context, fileID string) ([]byte, error) {
	oid, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, ErrNotFound
	}
	bucket, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := bucket.DownloadToStream(oid, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to download from GridFS: %w", err)
	}
	return buf.Bytes(), nil
}
