package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"elapor/internal/model"
	"elapor/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrObjectExists the path is taken and upsert was not requested
	ErrObjectExists = errors.New("object already exists")
	// ErrObjectNotFound no object at the path
	ErrObjectNotFound = errors.New("object not found")
)

// ObjectRepository bucket/path object storage
type ObjectRepository interface {
	Upload(ctx context.Context, bucket, path string, body io.Reader, opts model.UploadOptions) (*model.StoredObject, error)
	Remove(ctx context.Context, bucket string, paths []string) error
	Open(ctx context.Context, bucket, path string) (io.ReadCloser, *model.StoredObject, error)
}

// gridFSFile a document of the <bucket>.files collection
type gridFSFile struct {
	ID         primitive.ObjectID `bson:"_id"`
	Filename   string             `bson:"filename"`
	Length     int64              `bson:"length"`
	UploadDate time.Time          `bson:"uploadDate"`
	Metadata   bson.M             `bson:"metadata"`
}

func (f *gridFSFile) toObject(bucket string) *model.StoredObject {
	obj := &model.StoredObject{
		Bucket:     bucket,
		Path:       f.Filename,
		Size:       f.Length,
		UploadedAt: f.UploadDate,
	}
	if f.Metadata != nil {
		obj.ContentType, _ = f.Metadata["content_type"].(string)
		obj.CacheControl, _ = f.Metadata["cache_control"].(string)
	}
	return obj
}

// gridFSObjectRepository GridFS implementation, one GridFS bucket per storage bucket
type gridFSObjectRepository struct {
	mongo *database.MongoClient
}

// NewObjectRepository creates the GridFS object repository
func NewObjectRepository(mongo *database.MongoClient) ObjectRepository {
	return &gridFSObjectRepository{mongo: mongo}
}

func (r *gridFSObjectRepository) bucket(name string) (*gridfs.Bucket, error) {
	if r.mongo == nil {
		return nil, errors.New("object storage is not configured")
	}
	return gridfs.NewBucket(r.mongo.Database(), options.GridFSBucket().SetName(name))
}

// find returns every stored revision of path
func (r *gridFSObjectRepository) find(ctx context.Context, b *gridfs.Bucket, path string) ([]gridFSFile, error) {
	cursor, err := b.Find(bson.M{"filename": path}, options.GridFSFind().SetSort(bson.M{"uploadDate": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []gridFSFile
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// Upload stores body at bucket/path; with Upsert the previous revisions are replaced
func (r *gridFSObjectRepository) Upload(ctx context.Context, bucket, path string, body io.Reader, opts model.UploadOptions) (*model.StoredObject, error) {
	b, err := r.bucket(bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", bucket, err)
	}

	existing, err := r.find(ctx, b, path)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 && !opts.Upsert {
		return nil, ErrObjectExists
	}

	metadata := bson.M{
		"content_type":  opts.ContentType,
		"cache_control": opts.CacheControl,
	}
	counter := &countingReader{r: body}
	if _, err := b.UploadFromStream(path, counter, options.GridFSUpload().SetMetadata(metadata)); err != nil {
		return nil, fmt.Errorf("failed to upload %s/%s: %w", bucket, path, err)
	}

	// old revisions are removed only after the new one is written
	for _, f := range existing {
		if err := b.Delete(f.ID); err != nil {
			return nil, fmt.Errorf("failed to replace %s/%s: %w", bucket, path, err)
		}
	}

	return &model.StoredObject{
		Bucket:       bucket,
		Path:         path,
		Size:         counter.n,
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
		UploadedAt:   time.Now(),
	}, nil
}

// Remove deletes every revision of each path; missing paths are ignored
func (r *gridFSObjectRepository) Remove(ctx context.Context, bucket string, paths []string) error {
	b, err := r.bucket(bucket)
	if err != nil {
		return fmt.Errorf("failed to open bucket %s: %w", bucket, err)
	}
	for _, path := range paths {
		files, err := r.find(ctx, b, path)
		if err != nil {
			return err
		}
		for _, f := range files {
			if err := b.Delete(f.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
				return err
			}
		}
	}
	return nil
}

// Open streams the newest revision of bucket/path
func (r *gridFSObjectRepository) Open(ctx context.Context, bucket, path string) (io.ReadCloser, *model.StoredObject, error) {
	b, err := r.bucket(bucket)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open bucket %s: %w", bucket, err)
	}
	files, err := r.find(ctx, b, path)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, ErrObjectNotFound
	}

	stream, err := b.OpenDownloadStream(files[0].ID)
	if err != nil {
		return nil, nil, err
	}
	return stream, files[0].toObject(bucket), nil
}

// countingReader counts the bytes handed to GridFS
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
