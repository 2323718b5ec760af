package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
)

// FirebaseObjectStore keeps wardrobe images in the Firebase Storage bucket of
// the project.
type FirebaseObjectStore struct {
	bucket     *storage.BucketHandle
	presignTTL time.Duration
}

func NewFirebaseObjectStore(ctx context.Context, app *firebase.App, bucket string, presignTTL time.Duration) (*FirebaseObjectStore, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase storage client: %w", err)
	}
	handle, err := client.Bucket(bucket)
	if err != nil {
		return nil, fmt.Errorf("firebase storage bucket %s: %w", bucket, err)
	}
	return &FirebaseObjectStore{bucket: handle, presignTTL: presignTTL}, nil
}

func (s *FirebaseObjectStore) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	attrs, err := s.bucket.Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("object attrs %s: %w", key, err)
	}
	return &ObjectInfo{Key: key, ContentType: attrs.ContentType, Size: attrs.Size}, nil
}

func (s *FirebaseObjectStore) Download(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open object %s: %w", key, err)
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func (s *FirebaseObjectStore) Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	writer := s.bucket.Object(key).NewWriter(ctx)
	writer.ContentType = contentType
	writer.Metadata = metadata
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("write object %s: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close object %s: %w", key, err)
	}
	return nil
}

func (s *FirebaseObjectStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *FirebaseObjectStore) PresignRead(ctx context.Context, key string) (string, error) {
	return s.bucket.SignedURL(key, &storage.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(s.presignTTL),
		Scheme:  storage.SigningSchemeV4,
	})
}
