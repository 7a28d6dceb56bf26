package downloadqueue

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxFetchBytes bounds a single cached asset; ambient loops are short sound
// effects, not albums.
const maxFetchBytes = 64 * 1024 * 1024

// HTTPFetcher is the default Fetcher: a context-bounded GET through an
// io.LimitReader. LicenseHeader, if set, is read from the response to
// bucket the asset (spec §4.3); unset or unrecognized values fall back to
// the unknown bucket.
type HTTPFetcher struct {
	Client        *http.Client
	Timeout       time.Duration
	LicenseHeader string
}

// NewHTTPFetcher returns a fetcher with sane defaults.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client:        http.DefaultClient,
		Timeout:       30 * time.Second,
		LicenseHeader: "X-License-Class",
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("downloadqueue: build request: %w", err)
	}

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("downloadqueue: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("downloadqueue: fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, "", fmt.Errorf("downloadqueue: read %s: %w", url, err)
	}

	licenseClass := ""
	if f.LicenseHeader != "" {
		licenseClass = resp.Header.Get(f.LicenseHeader)
	}
	return data, licenseClass, nil
}

func (f *HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *HTTPFetcher) timeout() time.Duration {
	if f.Timeout > 0 {
		return f.Timeout
	}
	return 30 * time.Second
}
