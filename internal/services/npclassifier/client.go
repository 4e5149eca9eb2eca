package npclassifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"structmeta/internal/compound"
	"structmeta/internal/services"
)

const serviceName = "npclassifier"

// Result is the classification payload for one structure.
type Result struct {
	Pathways     []string `json:"pathway_results"`
	Superclasses []string `json:"superclass_results"`
	Classes      []string `json:"class_results"`
	IsGlycoside  *bool    `json:"isglycoside,omitempty"`
}

// Taxonomy converts the label lists to a taxonomy triple. Missing or empty
// lists become the unknown sentinel.
func (r Result) Taxonomy() compound.Taxonomy {
	return compound.Taxonomy{
		Pathway:    compound.JoinLabels(r.Pathways),
		Superclass: compound.JoinLabels(r.Superclasses),
		Class:      compound.JoinLabels(r.Classes),
	}
}

// Client calls the classification endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New creates a classification client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("npclassifier base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Classify requests the taxonomy of one structure string.
func (c *Client) Classify(ctx context.Context, structure string) (*Result, error) {
	structure = strings.TrimSpace(structure)
	if structure == "" {
		return nil, services.Wrap(services.ErrMalformed, serviceName, "classify", "structure must not be empty", nil)
	}
	endpoint, err := url.Parse(c.baseURL + "/classify")
	if err != nil {
		return nil, fmt.Errorf("parse npclassifier url: %w", err)
	}
	params := url.Values{}
	params.Set("smiles", structure)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		marker := services.TransportMarker(err)
		return nil, services.Wrap(marker, serviceName, "classify", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, services.Wrap(services.ErrUnexpected, serviceName, "classify", fmt.Sprintf("status %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var payload Result
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrMalformed, serviceName, "classify", "decode response", err)
	}
	return &payload, nil
}
