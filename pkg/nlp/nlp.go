package nlp

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

// Token is a single morpheme produced by the analyzer, carrying its surface
// form and part-of-speech tag (Sejong tagset, e.g. NNG, NNP, VV).
type Token struct {
	Form string `json:"form"`
	Tag  string `json:"tag"`
}

// Client talks to the Korean morphological analyzer sidecar over HTTP.
// The sidecar wraps the pretrained analyzer model; its internals are opaque.
//
// A Client should be created using NewClient, which verifies the sidecar is
// reachable before returning.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClientParams contains configuration for creating an analyzer Client.
type NewClientParams struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates an analyzer client and pings the sidecar's health
// endpoint. An unreachable analyzer is a startup failure, not a per-run one.
func NewClient(ctx context.Context, params NewClientParams) (*Client, error) {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL:    strings.TrimRight(params.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}

	if err := c.ping(ctx); err != nil {
		return nil, fmt.Errorf("analyzer unreachable: %w", err)
	}
	return c, nil
}

func (c *Client) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned status %d", resp.StatusCode)
	}
	return nil
}

// Analyze runs morphological analysis over text and returns the token
// sequence in surface order. Empty input yields no tokens without a request.
func (c *Client) Analyze(ctx context.Context, text string) ([]Token, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var out struct {
		Tokens []Token `json:"tokens"`
	}
	if err := c.post(ctx, "/analyze", text, &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}

// Normalize reprocesses text through the analyzer's typo-tolerant tokenizer
// and rejoins the tokens, fixing spacing and common misspellings. Empty input
// yields an empty string without a request.
func (c *Client) Normalize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := c.post(ctx, "/normalize", text, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

func (c *Client) post(ctx context.Context, path string, text string, out any) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("analyzer %s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
