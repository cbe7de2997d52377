package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// ErrTooLarge is returned when a remote file exceeds the fetcher's limit.
var ErrTooLarge = errors.New("remote file too large")

// Fetched is a remote file and the MIME type sniffed from its bytes.
type Fetched struct {
	ContentType string
	Data        []byte
}

// Fetcher downloads remote images for image posts.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Fetch GETs url. The content type is detected from the body, not taken
// from the response headers.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Fetched, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}

	return &Fetched{
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

// DetectType sniffs the MIME type of an uploaded file.
func DetectType(data []byte) string {
	return mimetype.Detect(data).String()
}
