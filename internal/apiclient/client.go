// Package apiclient talks to the /v1/locations and /v1/reviews endpoints.
// It satisfies explorer.Backend, so a session can run against a remote
// server.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studyspots/internal/model"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Status int
	Code   string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api returned %d: %s", e.Status, e.Code)
	}
	return fmt.Sprintf("api returned %d", e.Status)
}

func (c *Client) ListLocations(ctx context.Context) ([]model.Location, error) {
	var out []model.Location
	if err := c.do(ctx, http.MethodGet, "/v1/locations", nil, &out); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return out, nil
}

func (c *Client) InsertLocation(ctx context.Context, loc model.Location) (string, error) {
	var out struct {
		InsertedID string `json:"insertedId"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/locations", loc, &out); err != nil {
		return "", fmt.Errorf("insert location %q: %w", loc.Name, err)
	}
	return out.InsertedID, nil
}

func (c *Client) ListReviews(ctx context.Context) ([]model.Review, error) {
	var out []model.Review
	if err := c.do(ctx, http.MethodGet, "/v1/reviews", nil, &out); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}

func (c *Client) InsertReviews(ctx context.Context, reviews []model.Review) (int, error) {
	var out struct {
		InsertedCount int `json:"insertedCount"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/reviews", reviews, &out); err != nil {
		return 0, fmt.Errorf("insert %d reviews: %w", len(reviews), err)
	}
	return out.InsertedCount, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{Status: resp.StatusCode, Code: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
