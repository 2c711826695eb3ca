package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxBodyBytes caps how much of an autocomplete response we will read.
const maxBodyBytes = 4 << 20

// HTTPFetcher issues GET {base}/{version}/autocomplete?query={prefix}
// requests and classifies the outcome into the package error taxonomy.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPFetcher builds a fetcher for the given server base URL.
func NewHTTPFetcher(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Fetch performs one autocomplete call. A 200 returns the results list
// (possibly empty), a 429 returns ErrRateLimited, any other status
// returns a StatusError, and transport failures bubble up wrapped.
func (f *HTTPFetcher) Fetch(ctx context.Context, version, query string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/%s/autocomplete?query=%s",
		f.baseURL, url.PathEscape(version), url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build autocomplete request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("autocomplete request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.logger.Debug("close response body", zap.Error(closeErr))
		}
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
		return f.decodeResults(resp.Body, version, query)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("autocomplete %s query %q: %w", version, query, ErrRateLimited)
	default:
		return nil, fmt.Errorf("autocomplete %s query %q: %w", version, query,
			&StatusError{Code: resp.StatusCode})
	}
}

// decodeResults parses the success body. A body without a usable results
// list counts as an empty result set, not an error.
func (f *HTTPFetcher) decodeResults(body io.Reader, version, query string) ([]string, error) {
	var payload struct {
		Results []string `json:"results"`
	}
	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(&payload); err != nil {
		f.logger.Debug("malformed autocomplete body; treating as empty",
			zap.String("version", version),
			zap.String("query", query),
			zap.Error(err),
		)
		return nil, nil
	}
	return payload.Results, nil
}
