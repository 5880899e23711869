package qa

import (
	"encoding/json"
	"fmt"

	"github.com/triplewise/sparqlqa/pkg/sparql"
)

// Flatten converts a result set into a flat sequence of single-binding
// entries: each row's bindings become separate one-key maps rather than one
// map per row. Downstream consumers depend on this exact shape. Within a
// row, variables are visited in head order so output is deterministic.
func Flatten(rs *sparql.ResultSet) []map[string]string {
	out := make([]map[string]string, 0, len(rs.Bindings))
	for _, row := range rs.Bindings {
		for _, name := range rs.Vars {
			value, ok := row[name]
			if !ok {
				continue
			}
			out = append(out, map[string]string{name: value.Value})
		}
	}
	return out
}

// FormatResults flattens the result set and encodes it as JSON. The same
// result set always encodes to byte-identical output.
func FormatResults(rs *sparql.ResultSet) (string, error) {
	encoded, err := json.Marshal(Flatten(rs))
	if err != nil {
		return "", fmt.Errorf("failed to encode query results: %w", err)
	}
	return string(encoded), nil
}
