package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Label is the raw label emitted by the binary causal classifier.
type Label string

// LabelCausal marks a sentence as expressing a cause-effect relationship.
const LabelCausal Label = "LABEL_1"

// Causal reports whether the label is the positive (causal) class.
func (l Label) Causal() bool {
	return l == LabelCausal
}

// Client talks to the causal-classifier sidecar over HTTP. The sidecar wraps
// the pretrained binary text-classification model; its internals are opaque.
//
// A Client should be created using NewClient, which verifies the sidecar is
// reachable before returning.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClientParams contains configuration for creating a classifier Client.
type NewClientParams struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a classifier client and pings the sidecar's health
// endpoint. An unreachable classifier is a startup failure, not a per-run one.
func NewClient(ctx context.Context, params NewClientParams) (*Client, error) {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL:    strings.TrimRight(params.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier unreachable: health returned status %d", resp.StatusCode)
	}

	return c, nil
}

// Classify runs the binary classifier on one sentence and returns its label.
// The response follows the text-classification convention of a ranked list;
// only the top entry is consulted.
func (c *Client) Classify(ctx context.Context, sentence string) (Label, error) {
	payload, err := json.Marshal(map[string]string{"text": sentence})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var out []struct {
		Label Label   `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", fmt.Errorf("classifier returned no labels")
	}
	return out[0].Label, nil
}
