package testevents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/ltv/internal/adapters/http/api"
	"github.com/okian/ltv/internal/domain/types"
)

// Ack summarizes a POST /events response.
type Ack struct {
	TransactionID string
	Events        int
	Rejected      int
}

// Client submits payloads to a running server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// PostEvents submits raw to /events.
func (c *Client) PostEvents(ctx context.Context, raw []byte) (Ack, error) {
	resp, body, err := c.post(ctx, "/events", raw)
	if err != nil {
		return Ack{}, err
	}
	var set struct {
		TransactionID string            `json:"transaction_id"`
		Events        []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(body, &set); err != nil {
		return Ack{}, fmt.Errorf("decode events response: %w", err)
	}
	rejected, _ := strconv.Atoi(resp.Header.Get(api.HeaderRejectedItems))
	return Ack{TransactionID: set.TransactionID, Events: len(set.Events), Rejected: rejected}, nil
}

// Report submits raw to /reports/ltv and returns the top limit customers.
func (c *Client) Report(ctx context.Context, raw []byte, limit int) (types.Report, error) {
	_, body, err := c.post(ctx, "/reports/ltv?limit="+strconv.Itoa(limit), raw)
	if err != nil {
		return types.Report{}, err
	}
	var rep types.Report
	if err := json.Unmarshal(body, &rep); err != nil {
		return types.Report{}, fmt.Errorf("decode report response: %w", err)
	}
	return rep, nil
}

func (c *Client) post(ctx context.Context, path string, raw []byte) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("post %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(body))
	}
	return resp, body, nil
}
