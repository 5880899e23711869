// Package qa answers natural-language questions over an RDF graph by asking
// a language model to translate the question into a SPARQL query, executing
// the query against the endpoint, repairing it when the endpoint rejects it
// as malformed, and asking the model to phrase an answer from the results.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/triplewise/sparqlqa/pkg/sparql"
)

// DefaultMaxFixRetries is the repair budget applied when none is configured.
const DefaultMaxFixRetries = 5

// ErrNoResult is returned when the endpoint produces neither a result set
// nor an error. It indicates a broken Endpoint implementation, not an
// expected failure.
var ErrNoResult = errors.New("unable to execute query")

// Config holds the configuration for the chain. It is read-only after New.
type Config struct {
	Logger   *slog.Logger
	Clock    clockwork.Clock
	LLM      LLMClient
	Endpoint Endpoint
	Schema   SchemaFetcher

	// Prompts overrides the embedded default templates.
	Prompts *Prompts

	// MaxFixRetries is the number of repair attempts allowed after a failed
	// execution; the first execution is not counted. Zero disables repair.
	// Nil applies DefaultMaxFixRetries.
	MaxFixRetries *int

	// OnStep, if set, receives a timestamped record for each stage of a run.
	OnStep StepCallback
}

func (cfg *Config) Validate() error {
	if cfg.LLM == nil {
		return errors.New("LLM client is required")
	}
	if cfg.Endpoint == nil {
		return errors.New("endpoint is required")
	}
	if cfg.Schema == nil {
		return errors.New("schema fetcher is required")
	}
	if cfg.MaxFixRetries != nil && *cfg.MaxFixRetries < 0 {
		return errors.New("max fix retries must be >= 0")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Prompts == nil {
		prompts, err := LoadPrompts()
		if err != nil {
			return fmt.Errorf("failed to load default prompts: %w", err)
		}
		cfg.Prompts = prompts
	}
	return nil
}

// Chain orchestrates one question end to end. A Chain is safe for
// concurrent use; all per-question state is local to Run.
type Chain struct {
	cfg           Config
	maxFixRetries int
}

// New creates a Chain from the config.
func New(cfg Config) (*Chain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	maxFixRetries := DefaultMaxFixRetries
	if cfg.MaxFixRetries != nil {
		maxFixRetries = *cfg.MaxFixRetries
	}
	return &Chain{cfg: cfg, maxFixRetries: maxFixRetries}, nil
}

func (c *Chain) logInfo(msg string, args ...any) {
	if c.cfg.Logger != nil {
		c.cfg.Logger.Info(msg, args...)
	}
}

// Run answers a single question. It returns both the answer and the query
// that produced it; if the repair loop ran, the repaired query is returned.
// Every failure aborts the run; there is no partial answer.
func (c *Chain) Run(ctx context.Context, question string) (*Result, error) {
	rec := newStepRecorder(c.cfg.Clock, c.cfg.OnStep, c.cfg.Logger)
	rec.record(Step{Kind: StepQuestionReceived, Detail: question})

	schema, err := c.cfg.Schema.FetchSchema(ctx)
	if err != nil {
		return nil, c.fail(rec, fmt.Errorf("failed to fetch ontology schema: %w", err))
	}
	rec.record(Step{Kind: StepSchemaFetched})

	query, err := c.generateQuery(ctx, question, schema)
	if err != nil {
		return nil, c.fail(rec, fmt.Errorf("query generation failed: %w", err))
	}
	rec.record(Step{Kind: StepQueryGenerated, Query: query, Attempt: 1})

	query, rs, err := c.executeWithRepair(ctx, query, schema, rec)
	if err != nil {
		return nil, c.fail(rec, err)
	}

	results, err := FormatResults(rs)
	if err != nil {
		return nil, c.fail(rec, err)
	}
	rec.record(Step{Kind: StepResultsFormatted, Detail: results})

	answer, err := c.generateAnswer(ctx, question, results)
	if err != nil {
		return nil, c.fail(rec, fmt.Errorf("answer generation failed: %w", err))
	}
	rec.record(Step{Kind: StepAnswerGenerated, Detail: answer})

	rec.record(Step{Kind: StepFinished})
	c.logInfo("qa: run complete", "run", rec.runID, "query", query)

	return &Result{
		Answer:         answer,
		GeneratedQuery: query,
		Results:        results,
	}, nil
}

// executeWithRepair executes the candidate query, asking the model to fix
// it while the endpoint rejects it as malformed and budget remains. Repair
// attempts are strictly sequential; each repaired query is tried exactly
// once before either succeeding or triggering the next repair. Any failure
// class other than malformed-query is terminal.
func (c *Chain) executeWithRepair(ctx context.Context, query, schema string, rec *stepRecorder) (string, *sparql.ResultSet, error) {
	remaining := c.maxFixRetries
	attempt := 1
	for {
		rs, err := c.cfg.Endpoint.Query(ctx, query)
		if err == nil {
			if rs == nil {
				return "", nil, ErrNoResult
			}
			return query, rs, nil
		}

		var qe *sparql.QueryError
		if !errors.As(err, &qe) || qe.Kind != sparql.KindMalformedQuery {
			return "", nil, err
		}
		rec.record(Step{Kind: StepQueryMalformed, Query: query, Error: qe.Message, Attempt: attempt})

		if remaining == 0 {
			return "", nil, err
		}
		remaining--
		c.logInfo("qa: retrying to generate the query",
			"attempt", c.maxFixRetries-remaining,
			"budget", c.maxFixRetries)

		fixed, fixErr := c.fixQuery(ctx, query, qe.Message, schema)
		if fixErr != nil {
			return "", nil, fmt.Errorf("query repair failed: %w", fixErr)
		}
		query = fixed
		attempt++
		rec.record(Step{Kind: StepQueryRepaired, Query: query, Attempt: attempt})
	}
}

func (c *Chain) generateQuery(ctx context.Context, question, schema string) (string, error) {
	prompt := renderPrompt(c.cfg.Prompts.Generation, map[string]string{
		"question": question,
		"schema":   schema,
	})
	return c.cfg.LLM.Complete(ctx, "", prompt)
}

func (c *Chain) fixQuery(ctx context.Context, query, errorMessage, schema string) (string, error) {
	prompt := renderPrompt(c.cfg.Prompts.Fix, map[string]string{
		"query":  query,
		"error":  errorMessage,
		"schema": schema,
	})
	return c.cfg.LLM.Complete(ctx, "", prompt)
}

func (c *Chain) generateAnswer(ctx context.Context, question, results string) (string, error) {
	prompt := renderPrompt(c.cfg.Prompts.Answer, map[string]string{
		"question": question,
		"context":  results,
	})
	return c.cfg.LLM.Complete(ctx, "", prompt)
}

func (c *Chain) fail(rec *stepRecorder, err error) error {
	rec.record(Step{Kind: StepFailed, Error: err.Error()})
	return err
}
