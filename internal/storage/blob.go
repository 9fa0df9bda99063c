package storage

import (
	"context"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// BlobStore streams uploaded binaries into the database's GridFS bucket.
// One store is constructed at startup and shared by every request.
type BlobStore struct {
	bucket *mongo.GridFSBucket
}

// NewBlobStore opens the default GridFS bucket on the database.
func NewBlobStore(db *mongo.Database) *BlobStore {
	return &BlobStore{bucket: db.GridFSBucket()}
}

// Save streams the content into the bucket under the given filename and
// returns the new file id. A failed save never leaves a user record
// pointing at the blob; the caller links the id afterwards.
func (b *BlobStore) Save(ctx context.Context, filename string, content io.Reader) (bson.ObjectID, error) {
	fileID, err := b.bucket.UploadFromStream(ctx, filename, content)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("upload blob %s: %w", filename, err)
	}
	return fileID, nil
}
