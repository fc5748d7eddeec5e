// Package feedback extracts schema-validated structured data from
// free-form agent response text.
package feedback

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"focusgroup/internal/config"
)

// Extractor parses agent responses against one feedback schema. The
// JSON Schema document is compiled once; Extract is then a pure
// function of the raw text.
type Extractor struct {
	schema   *config.FeedbackSchema
	compiled *gojsonschema.Schema
}

// NewExtractor compiles the feedback schema. A nil schema is valid and
// yields an extractor that always returns nil structured data.
func NewExtractor(schema *config.FeedbackSchema) (*Extractor, error) {
	e := &Extractor{schema: schema}
	if schema == nil {
		return e, nil
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema.JSONSchema()))
	if err != nil {
		return nil, fmt.Errorf("failed to compile feedback schema: %w", err)
	}
	e.compiled = compiled
	return e, nil
}

// Extract attempts to pull a schema-valid JSON object out of raw
// response text. Candidates are tried in precedence order: the whole
// trimmed text, fenced code blocks, then balanced brace substrings.
// A nil result means extraction failed; that is a soft degradation,
// not an agent error, and the raw text is kept unchanged by callers.
func (e *Extractor) Extract(raw string) map[string]any {
	if e.schema == nil {
		return nil
	}

	for _, candidate := range candidates(raw) {
		if data := e.validate(candidate); data != nil {
			return data
		}
	}
	return nil
}

// validate parses one candidate and checks it against the schema.
// Partially valid objects are rejected outright: structured data is
// all-or-nothing.
func (e *Extractor) validate(candidate string) map[string]any {
	var data map[string]any
	if err := json.Unmarshal([]byte(candidate), &data); err != nil {
		return nil
	}

	result, err := e.compiled.Validate(gojsonschema.NewStringLoader(candidate))
	if err != nil || !result.Valid() {
		return nil
	}
	return data
}

var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?[ \t]*\n(.*?)```")

// candidates returns possible JSON object substrings in precedence
// order. Fenced blocks are returned in document order; the first one
// that validates wins.
func candidates(raw string) []string {
	var out []string

	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		out = append(out, trimmed)
	}

	for _, match := range fencedBlock.FindAllStringSubmatch(raw, -1) {
		block := strings.TrimSpace(match[1])
		if strings.HasPrefix(block, "{") {
			out = append(out, block)
		}
	}

	out = append(out, balancedObjects(raw)...)
	return out
}

// balancedObjects scans for balanced {...} substrings, tracking JSON
// string literals and escapes so braces inside strings do not count.
func balancedObjects(raw string) []string {
	var out []string

	for start := 0; start < len(raw); start++ {
		if raw[start] != '{' {
			continue
		}

		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(raw); i++ {
			c := raw[i]
			if escaped {
				escaped = false
				continue
			}
			switch {
			case c == '\\' && inString:
				escaped = true
			case c == '"':
				inString = !inString
			case inString:
			case c == '{':
				depth++
			case c == '}':
				depth--
				if depth == 0 {
					out = append(out, raw[start:i+1])
					start = i // continue scanning after this object
					i = len(raw)
				}
			}
		}
	}
	return out
}

// Extract is a convenience wrapper for one-off extraction. It returns
// nil both for a nil schema and for any extraction failure.
func Extract(raw string, schema *config.FeedbackSchema) map[string]any {
	e, err := NewExtractor(schema)
	if err != nil {
		return nil
	}
	return e.Extract(raw)
}
