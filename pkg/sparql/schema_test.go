package sparql

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleOntology = `@prefix ex: <http://example.org/> .
ex:Sparrow a ex:Bird .
`

func TestSchemaConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SchemaConfig
		wantErr string
	}{
		{
			name:    "query and file are mutually exclusive",
			cfg:     SchemaConfig{EndpointURL: "http://localhost:7200", OntologyQuery: "CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }", LocalFile: "/tmp/onto.ttl"},
			wantErr: "mutually exclusive",
		},
		{
			name:    "one of query or file is required",
			cfg:     SchemaConfig{EndpointURL: "http://localhost:7200"},
			wantErr: "required",
		},
		{
			name:    "query needs an endpoint",
			cfg:     SchemaConfig{OntologyQuery: "CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }"},
			wantErr: "endpoint URL is required",
		},
		{
			name: "local file alone is valid",
			cfg:  SchemaConfig{LocalFile: "/tmp/onto.ttl"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				require.NotNil(t, tt.cfg.HTTPClient, "Validate should default the HTTP client")
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestFetchSchema_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ontology.ttl")
	require.NoError(t, os.WriteFile(path, []byte(sampleOntology), 0o644))

	fetcher, err := NewSchemaFetcher(SchemaConfig{LocalFile: path})
	require.NoError(t, err)

	schema, err := fetcher.FetchSchema(context.Background())
	require.NoError(t, err)
	require.Equal(t, sampleOntology, schema)
}

func TestFetchSchema_LocalFileMissing(t *testing.T) {
	fetcher, err := NewSchemaFetcher(SchemaConfig{LocalFile: filepath.Join(t.TempDir(), "nope.ttl")})
	require.NoError(t, err)

	_, err = fetcher.FetchSchema(context.Background())
	require.ErrorContains(t, err, "failed to read ontology file")
}

func TestFetchSchema_OntologyQuery(t *testing.T) {
	const ontologyQuery = "CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }"

	var gotAccept, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("query")
		w.Header().Set("Content-Type", turtleMediaType)
		_, _ = w.Write([]byte(sampleOntology))
	}))
	defer server.Close()

	fetcher, err := NewSchemaFetcher(SchemaConfig{
		EndpointURL:   server.URL,
		OntologyQuery: ontologyQuery,
	})
	require.NoError(t, err)

	schema, err := fetcher.FetchSchema(context.Background())
	require.NoError(t, err)
	require.Equal(t, sampleOntology, schema)
	require.Equal(t, turtleMediaType, gotAccept)
	require.Equal(t, ontologyQuery, gotQuery)
}

func TestFetchSchema_EndpointFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("store exploded"))
	}))
	defer server.Close()

	fetcher, err := NewSchemaFetcher(SchemaConfig{
		EndpointURL:   server.URL,
		OntologyQuery: "DESCRIBE <http://example.org/>",
	})
	require.NoError(t, err)

	_, err = fetcher.FetchSchema(context.Background())
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	require.Equal(t, KindEndpointInternal, qe.Kind)
	require.Equal(t, "store exploded", qe.Message)
}
