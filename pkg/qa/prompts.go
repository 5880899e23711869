package qa

import (
	"fmt"
	"strings"

	"github.com/triplewise/sparqlqa/pkg/qa/prompts"
)

// Prompts contains the three prompt templates the chain renders. Templates
// use {{name}} placeholders; see the placeholder lists on each field.
type Prompts struct {
	// Generation produces the initial query. Placeholders: {{question}}, {{schema}}.
	Generation string
	// Fix repairs a query the endpoint rejected. Placeholders: {{query}},
	// {{error}}, {{schema}}.
	Fix string
	// Answer phrases the final answer. Placeholders: {{question}}, {{context}}.
	Answer string
}

// LoadPrompts loads the default prompt templates from the embedded files.
func LoadPrompts() (*Prompts, error) {
	p := &Prompts{}

	var err error
	if p.Generation, err = loadPrompt("SPARQL_GENERATION.md"); err != nil {
		return nil, fmt.Errorf("failed to load SPARQL_GENERATION: %w", err)
	}
	if p.Fix, err = loadPrompt("SPARQL_FIX.md"); err != nil {
		return nil, fmt.Errorf("failed to load SPARQL_FIX: %w", err)
	}
	if p.Answer, err = loadPrompt("QA.md"); err != nil {
		return nil, fmt.Errorf("failed to load QA: %w", err)
	}

	return p, nil
}

func loadPrompt(path string) (string, error) {
	data, err := prompts.FS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// renderPrompt substitutes {{name}} placeholders with their values.
func renderPrompt(template string, vars map[string]string) string {
	out := template
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{{"+name+"}}", value)
	}
	return out
}
