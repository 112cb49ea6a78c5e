package share

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreman2200/marquee/internal/bank"
)

// Client talks to a share service rooted at BaseURL.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) endpoint() string { return c.BaseURL + "/api/share" }

// Store uploads the non-empty banks of snap and returns the share id.
func (c *Client) Store(ctx context.Context, snap bank.Snapshot) (string, error) {
	body, err := json.Marshal(Prepare(snap))
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	data, err := c.do(req)
	if err != nil {
		return "", err
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &resp); err != nil || resp.ID == "" {
		return "", fmt.Errorf("share response: %q", data)
	}
	return resp.ID, nil
}

// Fetch downloads a shared state. Missing banks come back empty; a state that
// fails validation is returned repaired alongside an error.
func (c *Client) Fetch(ctx context.Context, id string) (bank.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint()+"?id="+url.QueryEscape(id), nil)
	if err != nil {
		return bank.EmptySnapshot(), err
	}
	data, err := c.do(req)
	if err != nil {
		return bank.EmptySnapshot(), err
	}
	if err := validate(data); err != nil {
		return bank.EmptySnapshot(), err
	}
	return bank.DecodeSnapshot(data)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("share: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	return data, nil
}
