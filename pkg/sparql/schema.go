package sparql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

const turtleMediaType = "text/turtle"

// SchemaConfig configures where the ontology schema comes from. Exactly one
// of OntologyQuery (a CONSTRUCT or DESCRIBE query run against EndpointURL)
// or LocalFile (a Turtle snapshot on disk) must be set.
type SchemaConfig struct {
	EndpointURL   string
	OntologyQuery string
	LocalFile     string
	Username      string
	Password      string
	HTTPClient    *http.Client
}

func (cfg *SchemaConfig) Validate() error {
	if cfg.OntologyQuery != "" && cfg.LocalFile != "" {
		return errors.New("ontology query and local file are mutually exclusive")
	}
	if cfg.OntologyQuery == "" && cfg.LocalFile == "" {
		return errors.New("either an ontology query or a local file is required")
	}
	if cfg.OntologyQuery != "" && cfg.EndpointURL == "" {
		return errors.New("endpoint URL is required for an ontology query")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return nil
}

// SchemaFetcher retrieves the ontology schema as Turtle text, either from
// the endpoint or from a local snapshot.
type SchemaFetcher struct {
	cfg SchemaConfig
}

// NewSchemaFetcher creates a SchemaFetcher.
func NewSchemaFetcher(cfg SchemaConfig) (*SchemaFetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema config: %w", err)
	}
	return &SchemaFetcher{cfg: cfg}, nil
}

// FetchSchema returns the ontology schema text.
func (f *SchemaFetcher) FetchSchema(ctx context.Context) (string, error) {
	if f.cfg.LocalFile != "" {
		data, err := os.ReadFile(f.cfg.LocalFile)
		if err != nil {
			return "", fmt.Errorf("failed to read ontology file: %w", err)
		}
		return string(data), nil
	}

	form := url.Values{"query": {f.cfg.OntologyQuery}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.EndpointURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create schema request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", turtleMediaType)
	if f.cfg.Username != "" {
		req.SetBasicAuth(f.cfg.Username, f.cfg.Password)
	}

	resp, err := f.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", &QueryError{Kind: KindUnknown, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &QueryError{Kind: KindUnknown, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &QueryError{
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	return string(body), nil
}
