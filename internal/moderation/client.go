// Package moderation gates proposed course content through a safety
// classification provider before any generation work is committed.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/raphaelgruber/courseforge/internal/metrics"
)

// DefaultEndpoint is the OpenAI moderation API endpoint.
const DefaultEndpoint = "https://api.openai.com/v1/moderations"

// DefaultModel is the moderation model requested by default.
const DefaultModel = "omni-moderation-latest"

// Client calls the moderation provider over HTTP.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	metrics  *metrics.Collector
}

// NewClient creates a moderation client. endpoint defaults to the OpenAI
// moderation API; apiKey is required for the real provider.
func NewClient(endpoint, apiKey string, mc *metrics.Collector) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    DefaultModel,
		client:   &http.Client{Timeout: 15 * time.Second},
		metrics:  mc,
	}
}

type moderationRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}

// Classification is the provider's verdict for one piece of text.
type Classification struct {
	Flagged    bool
	Categories []string // provider category names, only the flagged ones
}

// Classify submits text for moderation and returns the flagged categories.
func (c *Client) Classify(ctx context.Context, text string) (*Classification, error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordTiming(metrics.OpModeration, time.Since(start))
		}
	}()

	reqBody, err := json.Marshal(moderationRequest{
		Model: c.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moderation request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("moderation API error: %s - %s", resp.Status, string(body))
	}

	var modResp moderationResponse
	if err := json.Unmarshal(body, &modResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(modResp.Results) == 0 {
		return nil, fmt.Errorf("moderation API returned no results")
	}

	result := modResp.Results[0]
	classification := &Classification{Flagged: result.Flagged}
	for category, flagged := range result.Categories {
		if flagged {
			classification.Categories = append(classification.Categories, category)
		}
	}
	return classification, nil
}
