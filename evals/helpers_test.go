//go:build evals

package evals_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/stretchr/testify/require"

	"github.com/triplewise/sparqlqa/pkg/sparql"
	"github.com/triplewise/sparqlqa/pkg/sparql/sparqltesting"
)

func init() {
	possiblePaths := []string{".env", "../.env"}

	for _, path := range possiblePaths {
		if err := godotenv.Load(path); err == nil {
			break
		}
	}
}

func testLogger() *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))
}

// starWarsOntology is a small slice of the SWAPI ontology, enough for the
// model to generate queries about planets and their climates.
const starWarsOntology = `
	PREFIX rdf:  <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
	PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
	PREFIX voc:  <https://swapi.co/vocabulary/>
	PREFIX res:  <https://swapi.co/resource/>
	INSERT DATA {
		voc:Planet rdf:type rdfs:Class ;
			rdfs:label "Planet" .
		voc:climate rdf:type rdf:Property ;
			rdfs:label "climate" ;
			rdfs:domain voc:Planet .

		res:tatooine rdf:type voc:Planet ;
			rdfs:label "Tatooine" ;
			voc:climate "arid" .
		res:hoth rdf:type voc:Planet ;
			rdfs:label "Hoth" ;
			voc:climate "frozen" .
		res:dagobah rdf:type voc:Planet ;
			rdfs:label "Dagobah" ;
			voc:climate "murky" .
	}`

// newSeededEndpoint starts a Fuseki container, loads the Star Wars dataset,
// and returns a client plus a fetcher for the ontology statements.
func newSeededEndpoint(t *testing.T) (*sparql.Client, *sparql.SchemaFetcher) {
	log := testLogger()

	db, err := sparqltesting.NewDB(context.Background(), log, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	resp, err := http.PostForm(db.UpdateURL(), url.Values{"update": {starWarsOntology}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Less(t, resp.StatusCode, 300, "failed to seed dataset")

	fetcher, err := sparql.NewSchemaFetcher(sparql.SchemaConfig{
		EndpointURL: db.QueryURL(),
		OntologyQuery: `
			PREFIX rdf:  <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
			PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
			CONSTRUCT { ?s ?p ?o }
			WHERE {
				?s ?p ?o .
				{ ?s rdf:type rdfs:Class } UNION { ?s rdf:type rdf:Property }
			}`,
	})
	require.NoError(t, err)

	return sparql.NewClient(db.QueryURL()).WithLogger(log), fetcher
}

func requireAPIKey(t *testing.T) {
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		t.Skip("ANTHROPIC_API_KEY not set, skipping eval test")
	}
}
