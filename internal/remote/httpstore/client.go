package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openretail/stocksync/internal/config"
	"github.com/openretail/stocksync/internal/remote/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the remote document-store client.
var Module = fx.Module("remote.httpstore",
	fx.Provide(New),
)

type listResponse struct {
	Documents []domain.Document `json:"documents"`
}

type upsertResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the remote product collection over its JSON REST surface.
type Client struct {
	baseURL string
	apiKey  string
	log     *zap.Logger
	client  *http.Client
}

func New(cfg config.Config, log *zap.Logger) domain.Store {
	timeout := cfg.RemoteTimeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.RemoteBaseURL, "/"),
		apiKey:  cfg.RemoteAPIKey,
		log:     log.Named("remote.httpstore"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) FetchAll(ctx context.Context) ([]domain.Document, error) {
	var resp listResponse
	if err := c.doRequest(ctx, http.MethodGet, "/v1/products", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func (c *Client) Upsert(ctx context.Context, doc domain.Document) (string, error) {
	var resp upsertResponse
	if doc.ID == "" {
		if err := c.doRequest(ctx, http.MethodPost, "/v1/products", doc, &resp); err != nil {
			return "", err
		}
		return resp.ID, nil
	}
	if err := c.doRequest(ctx, http.MethodPut, "/v1/products/"+doc.ID, doc, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return doc.ID, nil
	}
	return resp.ID, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return c.doRequest(ctx, http.MethodDelete, "/v1/products/"+id, nil, nil)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	if c.baseURL == "" {
		return domain.ErrUnavailable
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var remoteErr errorResponse
		if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&remoteErr); decodeErr == nil && remoteErr.Error.Message != "" {
			return fmt.Errorf("%w: %s (status %d)", domain.ErrUnavailable, remoteErr.Error.Message, resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d", domain.ErrUnavailable, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode remote response: %w", err)
	}
	return nil
}
