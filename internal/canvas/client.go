package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"discussion-grader/internal/config"
	"discussion-grader/internal/logger"
	"discussion-grader/pkg/errors"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const apiPrefix = "/api/v1/"

// Client is an authenticated session against one Canvas instance. Each
// Client carries its own credentials, so several can coexist in a process.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

func NewClient(cfg *config.Config) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.Canvas.BaseURL, "/"),
		apiKey:   cfg.Canvas.APIKey,
		pageSize: cfg.Canvas.PageSize,
		httpClient: &http.Client{
			Timeout: cfg.Canvas.Timeout,
		},
		log: logger.Get().With().Str("component", "canvas").Logger(),
	}
	if c.pageSize <= 0 || c.pageSize > config.MaxPageSize {
		c.pageSize = config.MaxPageSize
	}
	if cfg.Canvas.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.Canvas.RequestsPerSecond), 1)
	}
	return c
}

// FetchPaged walks page=1,2,... with a fixed per_page until a page comes
// back short or empty, and returns every item in page order. query is sent
// unchanged on each request apart from the paging parameters.
func (c *Client) FetchPaged(ctx context.Context, path string, query url.Values) ([]json.RawMessage, error) {
	var items []json.RawMessage

	for page := 1; ; page++ {
		params := url.Values{}
		for k, v := range query {
			params[k] = append([]string(nil), v...)
		}
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(c.pageSize))

		var batch []json.RawMessage
		if err := c.do(ctx, http.MethodGet, path, params, nil, &batch); err != nil {
			return nil, err
		}

		c.log.Debug().Str("path", path).Int("page", page).Int("count", len(batch)).Msg("Fetched page")
		items = append(items, batch...)

		if len(batch) < c.pageSize {
			break
		}
	}

	return items, nil
}

// FetchOne decodes a single resource into out.
func (c *Client) FetchOne(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, nil, out)
}

// WriteOne performs a mutating call with a JSON payload. out may be nil.
func (c *Client) WriteOne(ctx context.Context, method, path string, payload any, out any) error {
	return c.do(ctx, method, path, nil, payload, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload any, out any) error {
	target := c.baseURL + apiPrefix + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &errors.TransportError{Method: method, Path: path, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("API request failed")
		return &errors.TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		c.log.Error().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("API request returned error status")
		return &errors.TransportError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.TransportError{Method: method, Path: path, StatusCode: resp.StatusCode, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func classifyStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return fmt.Errorf("authentication failed: HTTP %d", code)
	case code == http.StatusTooManyRequests, code >= 500:
		return errors.NewRetryableError(fmt.Errorf("HTTP %d", code), "canvas unavailable")
	default:
		return fmt.Errorf("HTTP %d", code)
	}
}
