package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  FeedbackSchema
		wantErr string
	}{
		{
			name:    "no fields",
			schema:  FeedbackSchema{},
			wantErr: "at least one field",
		},
		{
			name:    "empty field name",
			schema:  FeedbackSchema{Fields: []SchemaField{{Name: ""}}},
			wantErr: "empty name",
		},
		{
			name: "duplicate field",
			schema: FeedbackSchema{Fields: []SchemaField{
				{Name: "rating"}, {Name: "rating"},
			}},
			wantErr: "duplicate feedback schema field: rating",
		},
		{
			name:    "unknown kind",
			schema:  FeedbackSchema{Fields: []SchemaField{{Name: "x", Kind: "tuple"}}},
			wantErr: `unknown kind "tuple"`,
		},
		{
			name: "bounds on non-integer",
			schema: FeedbackSchema{Fields: []SchemaField{
				{Name: "summary", Kind: FieldString, Min: intPtr(1)},
			}},
			wantErr: "only valid for integer fields",
		},
		{
			name: "inverted bounds",
			schema: FeedbackSchema{Fields: []SchemaField{
				{Name: "rating", Kind: FieldInteger, Min: intPtr(10), Max: intPtr(1)},
			}},
			wantErr: "min 10 exceeds max 1",
		},
		{
			name: "valid",
			schema: FeedbackSchema{Fields: []SchemaField{
				{Name: "rating", Kind: FieldInteger, Min: intPtr(1), Max: intPtr(5)},
				{Name: "notes"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestJSONSchemaDocument(t *testing.T) {
	schema := FeedbackSchema{Fields: []SchemaField{
		{Name: "rating", Kind: FieldInteger, Required: true, Min: intPtr(1), Max: intPtr(5)},
		{Name: "pros", Kind: FieldList, Required: true},
		{Name: "verified", Kind: FieldBoolean},
		{Name: "notes"}, // unset kind defaults to string
	}}

	doc := schema.JSONSchema()
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, []string{"rating", "pros"}, doc["required"])

	props := doc["properties"].(map[string]any)

	rating := props["rating"].(map[string]any)
	assert.Equal(t, "integer", rating["type"])
	assert.Equal(t, 1, rating["minimum"])
	assert.Equal(t, 5, rating["maximum"])

	pros := props["pros"].(map[string]any)
	assert.Equal(t, "array", pros["type"])
	assert.Equal(t, map[string]any{"type": "string"}, pros["items"])

	assert.Equal(t, "boolean", props["verified"].(map[string]any)["type"])
	notes := props["notes"].(map[string]any)
	assert.Equal(t, "string", notes["type"])
	assert.Equal(t, "The notes field", notes["description"])
}

func TestPromptInstructions(t *testing.T) {
	schema := SchemaPreset("rating")
	require.NotNil(t, schema)

	text := schema.PromptInstructions()
	assert.Contains(t, text, "IMPORTANT: Respond with valid JSON matching this schema:")
	assert.Contains(t, text, "```json")
	assert.Contains(t, text, "- rating (integer (1-5)): Overall rating")
	assert.Contains(t, text, "- reasoning (string): Explanation for the rating")
	assert.Contains(t, text, "Respond ONLY with the JSON object, no other text.")
}

func TestSchemaPresets(t *testing.T) {
	assert.Equal(t, []string{"pros-cons", "rating", "review"}, SchemaPresetNames())
	assert.Nil(t, SchemaPreset("unknown"))

	for _, name := range SchemaPresetNames() {
		preset := SchemaPreset(name)
		require.NotNil(t, preset, name)
		assert.NoError(t, preset.Validate(), name)
	}

	// Presets are returned as copies: mutations must not leak back.
	first := SchemaPreset("rating")
	first.Fields[0].Name = "mutated"
	second := SchemaPreset("rating")
	assert.Equal(t, "rating", second.Fields[0].Name)
}
