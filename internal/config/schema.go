package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FieldKind is the type of a structured feedback field.
type FieldKind string

const (
	FieldInteger FieldKind = "integer" // numeric rating (1-5, 1-10, ...)
	FieldString  FieldKind = "string"  // free text
	FieldList    FieldKind = "list"    // list of strings (pros, cons, ...)
	FieldBoolean FieldKind = "boolean" // yes/no
)

// SchemaField is a single field in a structured feedback schema.
type SchemaField struct {
	Name        string    `json:"name" mapstructure:"name"`
	Kind        FieldKind `json:"kind" mapstructure:"kind"`
	Description string    `json:"description" mapstructure:"description"`
	Required    bool      `json:"required" mapstructure:"required"`
	Min         *int      `json:"min,omitempty" mapstructure:"min"` // integer fields only
	Max         *int      `json:"max,omitempty" mapstructure:"max"`
}

// FeedbackSchema describes the structured response agents are asked to
// produce. When configured, the schema's prompt instructions are
// appended to every agent prompt and responses are run through the
// extractor.
type FeedbackSchema struct {
	Fields     []SchemaField `json:"fields" mapstructure:"fields"`
	IncludeRaw bool          `json:"include_raw_response" mapstructure:"include_raw_response"`
}

// Validate checks the schema for structural problems. These are
// configuration errors: they reject the session before it starts.
func (s *FeedbackSchema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("feedback schema requires at least one field")
	}
	names := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("feedback schema field with empty name")
		}
		if names[f.Name] {
			return fmt.Errorf("duplicate feedback schema field: %s", f.Name)
		}
		names[f.Name] = true

		switch f.Kind {
		case FieldInteger, FieldString, FieldList, FieldBoolean, "":
		default:
			return fmt.Errorf("field %s: unknown kind %q", f.Name, f.Kind)
		}
		if f.Kind != FieldInteger && (f.Min != nil || f.Max != nil) {
			return fmt.Errorf("field %s: min/max bounds are only valid for integer fields", f.Name)
		}
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			return fmt.Errorf("field %s: min %d exceeds max %d", f.Name, *f.Min, *f.Max)
		}
	}
	return nil
}

// normalizedKind treats an unset kind as string, the original default.
func (f SchemaField) normalizedKind() FieldKind {
	if f.Kind == "" {
		return FieldString
	}
	return f.Kind
}

// JSONSchema converts the feedback schema to a JSON Schema document.
// The same document is used for extraction validation and, rendered,
// for agent prompt instructions.
func (s *FeedbackSchema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := []string{}

	for _, f := range s.Fields {
		desc := f.Description
		if desc == "" {
			desc = fmt.Sprintf("The %s field", f.Name)
		}
		prop := map[string]any{"description": desc}

		switch f.normalizedKind() {
		case FieldInteger:
			prop["type"] = "integer"
			if f.Min != nil {
				prop["minimum"] = *f.Min
			}
			if f.Max != nil {
				prop["maximum"] = *f.Max
			}
		case FieldString:
			prop["type"] = "string"
		case FieldList:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "string"}
		case FieldBoolean:
			prop["type"] = "boolean"
		}

		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// PromptInstructions renders instructions telling an agent to respond
// with JSON matching this schema.
func (s *FeedbackSchema) PromptInstructions() string {
	doc, _ := json.MarshalIndent(s.JSONSchema(), "", "  ")

	var b strings.Builder
	b.WriteString("IMPORTANT: Respond with valid JSON matching this schema:\n")
	b.WriteString("```json\n")
	b.Write(doc)
	b.WriteString("\n```\n\nField descriptions:\n")

	for _, f := range s.Fields {
		desc := f.Description
		if desc == "" {
			desc = fmt.Sprintf("The %s field", f.Name)
		}
		hint := string(f.normalizedKind())
		switch f.normalizedKind() {
		case FieldInteger:
			if f.Min != nil && f.Max != nil {
				hint = fmt.Sprintf("integer (%d-%d)", *f.Min, *f.Max)
			}
		case FieldList:
			hint = "array of strings"
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", f.Name, hint, desc)
	}

	b.WriteString("\nRespond ONLY with the JSON object, no other text.")
	return b.String()
}

func intPtr(v int) *int { return &v }

// builtinSchemas are the bundled schema presets for common use cases.
var builtinSchemas = map[string]*FeedbackSchema{
	"rating": {
		Fields: []SchemaField{
			{Name: "rating", Kind: FieldInteger, Description: "Overall rating", Required: true, Min: intPtr(1), Max: intPtr(5)},
			{Name: "reasoning", Kind: FieldString, Description: "Explanation for the rating", Required: true},
		},
		IncludeRaw: true,
	},
	"pros-cons": {
		Fields: []SchemaField{
			{Name: "pros", Kind: FieldList, Description: "List of positive aspects", Required: true},
			{Name: "cons", Kind: FieldList, Description: "List of negative aspects or issues", Required: true},
			{Name: "summary", Kind: FieldString, Description: "Brief overall summary", Required: true},
		},
		IncludeRaw: true,
	},
	"review": {
		Fields: []SchemaField{
			{Name: "rating", Kind: FieldInteger, Description: "Overall quality rating", Required: true, Min: intPtr(1), Max: intPtr(5)},
			{Name: "pros", Kind: FieldList, Description: "Positive aspects", Required: true},
			{Name: "cons", Kind: FieldList, Description: "Areas for improvement", Required: true},
			{Name: "suggestions", Kind: FieldList, Description: "Specific suggestions for improvement", Required: false},
		},
		IncludeRaw: true,
	},
}

// SchemaPreset returns a copy of a built-in schema preset, or nil if
// the name is unknown.
func SchemaPreset(name string) *FeedbackSchema {
	preset, ok := builtinSchemas[name]
	if !ok {
		return nil
	}
	clone := *preset
	clone.Fields = append([]SchemaField(nil), preset.Fields...)
	return &clone
}

// SchemaPresetNames lists available preset names, sorted.
func SchemaPresetNames() []string {
	names := make([]string, 0, len(builtinSchemas))
	for name := range builtinSchemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
