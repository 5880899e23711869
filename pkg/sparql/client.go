// Package sparql talks to a SPARQL 1.1 Protocol endpoint over HTTP and
// classifies endpoint failures into a closed set of kinds.
package sparql

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const resultsJSONMediaType = "application/sparql-results+json"

// Value is a single RDF term bound to a variable in a result row.
type Value struct {
	Type     string `json:"type"` // "uri", "literal", "bnode"
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Binding maps variable names to their bound values for one result row.
type Binding map[string]Value

// ResultSet holds the decoded response of a query. SELECT queries populate
// Vars and Bindings; ASK queries populate Boolean.
type ResultSet struct {
	Vars     []string
	Bindings []Binding
	Boolean  *bool
}

// Client executes queries against one SPARQL endpoint.
type Client struct {
	endpointURL string
	username    string
	password    string
	httpClient  *http.Client
	log         *slog.Logger
}

// NewClient creates a client for the given query endpoint URL.
func NewClient(endpointURL string) *Client {
	return &Client{
		endpointURL: endpointURL,
		httpClient:  http.DefaultClient,
		log:         slog.Default(),
	}
}

// NewClientWithAuth creates a client that authenticates with HTTP basic auth.
func NewClientWithAuth(endpointURL, username, password string) *Client {
	c := NewClient(endpointURL)
	c.username = username
	c.password = password
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

// WithLogger replaces the client's logger.
func (c *Client) WithLogger(log *slog.Logger) *Client {
	c.log = log
	return c
}

// Query sends the query to the endpoint and decodes the JSON result set.
// Failures are returned as *QueryError with the kind classified from the
// HTTP status code; the endpoint's response body becomes the error message.
func (c *Client) Query(ctx context.Context, query string) (*ResultSet, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &QueryError{Kind: KindUnknown, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", resultsJSONMediaType)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &QueryError{Kind: KindUnknown, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &QueryError{Kind: KindUnknown, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := classifyStatus(resp.StatusCode)
		c.log.Debug("sparql: query rejected", "status", resp.StatusCode, "kind", string(kind))
		return nil, &QueryError{
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	rs, err := decodeResults(body)
	if err != nil {
		return nil, &QueryError{Kind: KindUnknown, Message: err.Error()}
	}

	c.log.Debug("sparql: query ok", "vars", len(rs.Vars), "rows", len(rs.Bindings))
	return rs, nil
}

// resultsDocument is the SPARQL 1.1 Query Results JSON Format document.
type resultsDocument struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Boolean *bool `json:"boolean"`
	Results *struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

func decodeResults(body []byte) (*ResultSet, error) {
	var doc resultsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode result set: %w", err)
	}
	rs := &ResultSet{
		Vars:    doc.Head.Vars,
		Boolean: doc.Boolean,
	}
	if doc.Results != nil {
		rs.Bindings = doc.Results.Bindings
	}
	return rs, nil
}
