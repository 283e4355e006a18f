package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDoc() map[string]any {
	return map[string]any{
		"school_name": "A",
		"source_url":  "u",
		"terms": []any{
			map[string]any{
				"academic_year": "2024-2025",
				"term_name":     "Autumn",
				"events": []any{
					map[string]any{
						"start_date": "2024-09-01",
						"event_text": "Start of term",
					},
				},
			},
		},
	}
}

func TestValidateValidDocument(t *testing.T) {
	require.NoError(t, Validate(validDoc()))
}

func TestValidateFailureReasons(t *testing.T) {
	tests := []struct {
		name string
		doc  any
		want string
	}{
		{"nil value", nil, "Not a dictionary"},
		{"scalar", "hello", "Not a dictionary"},
		{"list", []any{1, 2}, "Not a dictionary"},
		{"empty object misses school_name first", map[string]any{}, "Missing required field: school_name"},
		{
			"source_url checked second",
			map[string]any{"school_name": "A", "terms": []any{}},
			"Missing required field: source_url",
		},
		{
			"terms checked third",
			map[string]any{"school_name": "A", "source_url": "u"},
			"Missing required field: terms",
		},
		{
			"terms must be a list",
			map[string]any{"school_name": "A", "source_url": "u", "terms": "nope"},
			"terms must be a list",
		},
		{
			"empty terms",
			map[string]any{"school_name": "A", "source_url": "u", "terms": []any{}},
			"terms array is empty (no terms data)",
		},
		{
			"term not an object",
			map[string]any{"school_name": "A", "source_url": "u", "terms": []any{"x"}},
			"Term must be a dictionary",
		},
		{
			"term missing fields",
			map[string]any{"school_name": "A", "source_url": "u", "terms": []any{
				map[string]any{"academic_year": "2024-2025", "events": []any{}},
			}},
			"Term missing required fields",
		},
		{
			"events not a list",
			map[string]any{"school_name": "A", "source_url": "u", "terms": []any{
				map[string]any{"academic_year": "2024-2025", "term_name": "Autumn", "events": "x"},
			}},
			"Events must be a list",
		},
		{
			"event not an object",
			map[string]any{"school_name": "A", "source_url": "u", "terms": []any{
				map[string]any{"academic_year": "2024-2025", "term_name": "Autumn", "events": []any{"x"}},
			}},
			"Event must be a dictionary",
		},
		{
			"event missing start_date checked first",
			map[string]any{"school_name": "A", "source_url": "u", "terms": []any{
				map[string]any{"academic_year": "2024-2025", "term_name": "Autumn", "events": []any{
					map[string]any{"event_text": "x"},
				}},
			}},
			"Event missing required field: start_date",
		},
		{
			"event missing event_text",
			map[string]any{"school_name": "A", "source_url": "u", "terms": []any{
				map[string]any{"academic_year": "2024-2025", "term_name": "Autumn", "events": []any{
					map[string]any{"start_date": "2024-09-01"},
				}},
			}},
			"Event missing required field: event_text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.doc)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestValidateEmptyEventsListIsValid(t *testing.T) {
	doc := validDoc()
	doc["terms"].([]any)[0].(map[string]any)["events"] = []any{}
	assert.NoError(t, Validate(doc))
}

func TestValidateShortCircuitsAtFirstFailure(t *testing.T) {
	// Both the second term and the first term's event are broken; the first
	// failure encountered in order must win.
	doc := map[string]any{
		"school_name": "A",
		"source_url":  "u",
		"terms": []any{
			map[string]any{"academic_year": "2024-2025", "term_name": "Autumn", "events": []any{
				map[string]any{"event_text": "missing start"},
			}},
			"not a term",
		},
	}
	err := Validate(doc)
	require.Error(t, err)
	assert.Equal(t, "Event missing required field: start_date", err.Error())
}
