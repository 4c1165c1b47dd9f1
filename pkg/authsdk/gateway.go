package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-logr/logr"
)

// Gateway sends backend requests carrying the current session's bearer
// token. A 401 answer ends the session.
type Gateway struct {
	Client *APIClient
	Store  *SessionStore
	Logger logr.Logger
}

// NewGateway binds client and store.
func NewGateway(client *APIClient, store *SessionStore, logger logr.Logger) *Gateway {
	return &Gateway{Client: client, Store: store, Logger: resolveLogger(logger)}
}

// Do sends method path with body. Content-Type defaults to JSON and caller
// headers override defaults; Authorization is set last and cannot be
// overridden while a token is stored.
//
// On 401 the body is discarded, the session is cleared and ErrSessionExpired
// is returned. Any other status is returned to the caller untouched. There
// are no retries.
func (g *Gateway) Do(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers http.Header,
) (*http.Response, error) {
	token, err := g.Store.CurrentToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	h := http.Header{}
	h.Set("Content-Type", "application/json")
	for key, values := range headers {
		h[http.CanonicalHeaderKey(key)] = values
	}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.Client.doRequest(ctx, method, path, body, h)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxProfileBytes))
		_ = resp.Body.Close()

		if err := g.Store.Clear(context.WithoutCancel(ctx)); err != nil {
			g.logger().Error(err, "clearing session after 401 failed")
		}
		g.logger().Info("backend rejected token, session cleared", "path", path)
		return nil, ErrSessionExpired
	}

	return resp, nil
}

// GetJSON performs an authenticated GET and decodes a 2xx JSON body into v.
func (g *Gateway) GetJSON(ctx context.Context, path string, v any) error {
	headers := http.Header{}
	headers.Set("Accept", "application/json")

	resp, err := g.Do(ctx, http.MethodGet, path, nil, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (g *Gateway) logger() logr.Logger {
	return resolveLogger(g.Logger)
}
