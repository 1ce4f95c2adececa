// Package fetch retrieves raw image bytes over HTTP. It never decodes
// images: decoding belongs to the interactive thread.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"codeberg.org/snonux/galleryexplorer/internal/search"
)

const (
	// ThumbnailTimeout bounds a preview fetch
	ThumbnailTimeout = 8 * time.Second
	// DownloadTimeout bounds a final download fetch
	DownloadTimeout = 15 * time.Second
	// ThumbnailMinBytes is the body size a preview must exceed
	ThumbnailMinBytes = 100
	// NoSizeFloor accepts any body, including an empty one
	NoSizeFloor = -1

	maxImageBytes = 32 << 20
)

var (
	// ErrBadStatus is returned for any status other than 200
	ErrBadStatus = errors.New("unexpected status")
	// ErrBodyTooSmall is returned when the body does not exceed the floor
	ErrBodyTooSmall = errors.New("response body too small")
)

// FetchFailure describes why one image could not be fetched
type FetchFailure struct {
	URL        string
	StatusCode int
	Size       int
	Cause      error
}

func (e *FetchFailure) Error() string {
	switch {
	case errors.Is(e.Cause, ErrBadStatus):
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	case errors.Is(e.Cause, ErrBodyTooSmall):
		return fmt.Sprintf("fetch %s: body of %d bytes too small", e.URL, e.Size)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
	}
}

func (e *FetchFailure) Unwrap() error {
	return e.Cause
}

// Response is a successfully fetched image body
type Response struct {
	Body        []byte
	ContentType string
}

// Fetcher performs single GET requests for image URLs
type Fetcher struct {
	httpClient *http.Client
	minBytes   int
}

// NewFetcher creates a fetcher whose requests time out after timeout.
// A body must be longer than minBytes to count as success.
func NewFetcher(timeout time.Duration, minBytes int) *Fetcher {
	return NewFetcherWithHTTP(&http.Client{Timeout: timeout}, minBytes)
}

// NewFetcherWithHTTP wraps an existing http.Client
func NewFetcherWithHTTP(hc *http.Client, minBytes int) *Fetcher {
	return &Fetcher{httpClient: hc, minBytes: minBytes}
}

// NewThumbnailFetcher returns a fetcher configured for previews
func NewThumbnailFetcher() *Fetcher {
	return NewFetcher(ThumbnailTimeout, ThumbnailMinBytes)
}

// NewDownloadFetcher returns a fetcher configured for final downloads
func NewDownloadFetcher() *Fetcher {
	return NewFetcher(DownloadTimeout, NoSizeFloor)
}

// Fetch downloads url. Anything but HTTP 200 with a big enough body is a
// *FetchFailure.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchFailure{URL: url, Cause: err}
	}
	req.Header.Set("User-Agent", search.UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchFailure{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchFailure{URL: url, StatusCode: resp.StatusCode, Cause: ErrBadStatus}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, &FetchFailure{URL: url, StatusCode: resp.StatusCode, Cause: err}
	}
	if len(body) <= f.minBytes {
		return nil, &FetchFailure{
			URL:        url,
			StatusCode: resp.StatusCode,
			Size:       len(body),
			Cause:      ErrBodyTooSmall,
		}
	}

	return &Response{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}
