package wikidata

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

	"structmeta/internal/services"
)

const serviceName = "wikidata"

// InChIKeyQuery selects every item with an InChIKey (P235) and, when
// present, its isomeric structure string (P2017).
const InChIKeyQuery = `PREFIX wdt: <http://www.wikidata.org/prop/direct/>
SELECT ?ik ?wd ?isomeric_smiles
WHERE {
    ?wd wdt:P235 ?ik .
    OPTIONAL { ?wd wdt:P2017 ?isomeric_smiles }
}`

// Binding is one row of the cross-reference table.
type Binding struct {
	ExternalID string
	InChIKey   string
	Structure  string
}

type sparqlValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sparqlResponse struct {
	Results *struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

// Client runs the bulk query against a SPARQL endpoint.
type Client struct {
	endpoint   string
	userAgent  string
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

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithUserAgent sets the User-Agent header sent with the query. The public
// endpoint throttles anonymous agents aggressively.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.userAgent = agent
		}
	}
}

// New creates a SPARQL client for endpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("wikidata endpoint required")
	}
	client := &Client{
		endpoint:   endpoint,
		userAgent:  "structmeta",
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FetchInChIKeys runs InChIKeyQuery and returns every binding that carries
// both an item and an InChIKey.
func (c *Client) FetchInChIKeys(ctx context.Context) ([]Binding, error) {
	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse wikidata url: %w", err)
	}
	params := endpoint.Query()
	params.Set("query", InChIKeyQuery)
	params.Set("format", "json")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("User-Agent", c.userAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		marker := services.TransportMarker(err)
		return nil, services.Wrap(marker, serviceName, "fetch inchikeys", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, services.Wrap(services.ErrUnexpected, serviceName, "fetch inchikeys", fmt.Sprintf("status %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var payload sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrMalformed, serviceName, "fetch inchikeys", "decode response", err)
	}
	if payload.Results == nil {
		return nil, services.Wrap(services.ErrMalformed, serviceName, "fetch inchikeys", "response has no results object", nil)
	}

	bindings := make([]Binding, 0, len(payload.Results.Bindings))
	for _, row := range payload.Results.Bindings {
		id := strings.TrimSpace(row["wd"].Value)
		key := strings.TrimSpace(row["ik"].Value)
		if id == "" || key == "" {
			continue
		}
		bindings = append(bindings, Binding{
			ExternalID: id,
			InChIKey:   key,
			Structure:  strings.TrimSpace(row["isomeric_smiles"].Value),
		})
	}
	return bindings, nil
}
