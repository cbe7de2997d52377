package blob

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore writes blobs to a Google Cloud Storage bucket.
type GCSStore struct {
	client     *storage.Client
	bucketName string
	baseURL    string
}

var _ Store = (*GCSStore)(nil)

// NewGCSStore creates a client for bucketName. An empty saKeyPath uses the
// ambient application default credentials. Objects are served from baseURL,
// or from the public storage.googleapis.com endpoint when it is empty.
func NewGCSStore(ctx context.Context, bucketName, saKeyPath, baseURL string) (*GCSStore, error) {
	var opts []option.ClientOption
	if saKeyPath != "" {
		if _, err := os.Stat(saKeyPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s", saKeyPath)
		}
		opts = append(opts, option.WithCredentialsFile(saKeyPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + bucketName
	}
	return &GCSStore{
		client:     client,
		bucketName: bucketName,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *GCSStore) Put(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
	name := objectName(folder, contentType)

	writer := s.client.Bucket(s.bucketName).Object(name).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "public, max-age=31536000, immutable"

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to write GCS object %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer for %s: %w", name, err)
	}
	return s.baseURL + "/" + name, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
