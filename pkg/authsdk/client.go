package authsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultHTTPTimeout is applied by NewAPIClient.
const DefaultHTTPTimeout = 10 * time.Second

// APIClient is a thin client for the marketplace backend. It never adds
// credentials by itself; authenticated calls go through Gateway.
type APIClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewAPIClient creates a client for baseURL. The base is either the direct
// backend origin or the same-origin proxy prefix, depending on deployment.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultHTTPTimeout,
		},
	}
}

// url joins the base URL and path. Absolute URLs are returned unchanged.
func (c *APIClient) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

func (c *APIClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// doRequest performs a request with exactly the headers given.
func (c *APIClient) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers http.Header,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range headers {
		req.Header[key] = append([]string(nil), values...)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}
