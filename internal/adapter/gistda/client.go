package gistda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
	"github.com/couchcryptid/hotspot-etl/internal/observability"
)

// DefaultEndpoint is the VIIRS 1-day hotspot collection.
const DefaultEndpoint = "https://api-gateway.gistda.or.th/api/2.0/resources/features/viirs/1day"

// maxErrorBody bounds how much of a failed response is kept in an APIError.
const maxErrorBody = 512

// Client fetches hotspot pages from the GISTDA API gateway.
// It implements pipeline.PageFetcher.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a feed client. An empty baseURL selects DefaultEndpoint.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultEndpoint
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// CheckCredentials fails with a *domain.ConfigError when no API key is set.
func (c *Client) CheckCredentials() error {
	if c.apiKey == "" {
		return &domain.ConfigError{Field: "GISTDA_KEY"}
	}
	return nil
}

// FetchPage requests limit features starting at offset. Any status other than
// 200 is returned as a *domain.APIError.
func (c *Client) FetchPage(ctx context.Context, offset, limit int) (domain.Page, error) {
	params := url.Values{
		"api_key": {c.apiKey},
		"limit":   {strconv.Itoa(limit)},
		"offset":  {strconv.Itoa(offset)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.PageFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		// The transport error embeds the URL, which carries the key.
		return domain.Page{}, fmt.Errorf("feed request at offset %d: %w", offset, redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.Page{}, &domain.APIError{Status: resp.StatusCode, Offset: offset, Body: string(body)}
	}

	var page domain.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return domain.Page{}, fmt.Errorf("decode page at offset %d: %w", offset, err)
	}

	c.logger.Debug("feed page fetched",
		"offset", offset,
		"limit", limit,
		"features", len(page.Features),
		"number_matched", page.NumberMatched,
	)
	return page, nil
}

func redact(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return ue.Err
	}
	return err
}
