// Package fetch downloads attendance selfies over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrInvalidURL is returned for empty or non-HTTP image URLs.
	ErrInvalidURL = errors.New("invalid image URL")
	// ErrDownloadFailed is returned when the image could not be retrieved.
	ErrDownloadFailed = errors.New("image download failed")
)

// maxImageBytes caps a single download; selfies are a few MB at most.
const maxImageBytes = 32 << 20

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request for %s failed with status %d", e.URL, e.StatusCode)
}

// Is makes StatusError match ErrDownloadFailed.
func (e *StatusError) Is(target error) bool {
	return target == ErrDownloadFailed
}

// Image is a downloaded image with its declared content type.
type Image struct {
	Data     []byte
	MIMEType string // empty when the server did not declare one
}

// Fetcher performs single-attempt image downloads.
type Fetcher struct {
	client *http.Client
}

// New creates a Fetcher whose requests time out after timeout.
func New(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// NewWithClient creates a Fetcher using an existing HTTP client.
func NewWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// ValidURL reports whether rawURL looks like an HTTP(S) image link.
// Spreadsheet exports write missing cells as "nan".
func ValidURL(rawURL string) bool {
	u := strings.TrimSpace(rawURL)
	if u == "" || strings.EqualFold(u, "nan") {
		return false
	}
	return strings.HasPrefix(strings.ToLower(u), "http")
}

// Fetch downloads the image at rawURL. There are no retries.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Image, error) {
	if !ValidURL(rawURL) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	url := strings.TrimSpace(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	resp, err := f.client.Do(req) //nolint:gosec // URLs come from the operator's attendance export
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: could not read response body: %w", ErrDownloadFailed, err)
	}

	return &Image{Data: data, MIMEType: mediaType(resp.Header.Get("Content-Type"))}, nil
}

func mediaType(header string) string {
	if header == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return mt
}
