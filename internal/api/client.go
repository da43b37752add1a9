package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource supplies bearer credentials for authorized requests. The session
// manager is the only implementation outside tests.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// Client is a JSON HTTP client for the WeTrack backend.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Do issues an unauthenticated request. A nil out discards the response body.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, "", body, out)
}

// DoBearer issues a request with an explicit bearer token and no retry. The
// session manager uses it so that its own calls can never recurse into a
// refresh loop.
func (c *Client) DoBearer(ctx context.Context, token, method, path string, body, out any) error {
	return c.do(ctx, method, path, token, body, out)
}

// DoAuthorized issues a bearer-authorized request. On a 401 it asks the token
// source for a refresh exactly once and retries exactly once; a second 401 is
// surfaced as-is and a failed refresh is surfaced as ErrRefreshFailed. This is
// the only place the refresh-and-retry policy lives.
func (c *Client) DoAuthorized(ctx context.Context, ts TokenSource, method, path string, body, out any) error {
	token, err := ts.AccessToken(ctx)
	if err != nil {
		return err
	}

	err = c.do(ctx, method, path, token, body, out)
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}

	token, refreshErr := ts.Refresh(ctx)
	if refreshErr != nil {
		return refreshErr
	}

	return c.do(ctx, method, path, token, body, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
