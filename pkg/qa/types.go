package qa

import (
	"context"

	"github.com/triplewise/sparqlqa/pkg/sparql"
)

// LLMClient is the interface for interacting with a language model. It is
// used the same way for query generation, query repair, and answering;
// only the prompts differ.
type LLMClient interface {
	// Complete sends a prompt and returns the response text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Endpoint executes SPARQL queries against one graph store.
type Endpoint interface {
	// Query executes a query and returns the decoded result set. Failures
	// should be *sparql.QueryError so the chain can classify them.
	Query(ctx context.Context, query string) (*sparql.ResultSet, error)
}

// SchemaFetcher retrieves the ontology schema describing the graph.
type SchemaFetcher interface {
	// FetchSchema returns a textual description of the graph's classes and
	// properties, given to the model so it can generate valid queries.
	FetchSchema(ctx context.Context) (string, error)
}

// Result holds the outcome of one question.
type Result struct {
	// Answer is the model's natural-language answer.
	Answer string

	// GeneratedQuery is the query that actually produced the results. If
	// the repair loop ran, this is the repaired query, not the original.
	GeneratedQuery string

	// Results is the flattened, JSON-encoded query results the answer was
	// generated from.
	Results string
}
