package completion

import (
	"errors"
	"fmt"
	"strings"

	"fngate/internal/chat"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidToolSchema is returned when a tool's parameters are not a usable
// JSON Schema.
var ErrInvalidToolSchema = errors.New("invalid tool parameters schema")

// schemaSet holds the compiled parameter schemas of a request's tools.
type schemaSet map[string]*gojsonschema.Schema

func compileSchemas(tools []chat.ToolDefinition) (schemaSet, error) {
	set := make(schemaSet, len(tools))
	for _, t := range tools {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: tool without a name", ErrInvalidToolSchema)
		}
		if len(t.Parameters) == 0 || string(t.Parameters) == "null" {
			set[t.Name] = nil
			continue
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(t.Parameters))
		if err != nil {
			return nil, fmt.Errorf("%w: tool %q: %v", ErrInvalidToolSchema, t.Name, err)
		}
		set[t.Name] = s
	}
	return set, nil
}

// check validates a call against the catalog. It returns a description of
// every problem found, or nil when the call conforms.
func (s schemaSet) check(tc chat.ToolCall) []string {
	if len(s) == 0 {
		return nil
	}
	schema, ok := s[tc.Function.Name]
	if !ok {
		return []string{fmt.Sprintf("unknown function %q", tc.Function.Name)}
	}
	if schema == nil {
		return nil
	}
	res, err := schema.Validate(gojsonschema.NewStringLoader(tc.Function.Arguments))
	if err != nil {
		return []string{err.Error()}
	}
	if res.Valid() {
		return nil
	}
	var problems []string
	for _, e := range res.Errors() {
		problems = append(problems, e.String())
	}
	return problems
}

func joinProblems(p []string) string { return strings.Join(p, "; ") }
