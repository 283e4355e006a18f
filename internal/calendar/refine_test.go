package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectShape(t *testing.T) {
	tests := []struct {
		name     string
		payload  map[string]any
		want     Shape
		wantText string
	}{
		{
			name:    "canonical wins over text",
			payload: map[string]any{"school_name": "A", "terms": []any{}, "text": "ignored"},
			want:    ShapeCanonical,
		},
		{
			name:     "text wrapped",
			payload:  map[string]any{"text": "some json here"},
			want:     ShapeTextWrapped,
			wantText: "some json here",
		},
		{
			name:     "text checked before raw",
			payload:  map[string]any{"text": "from text", "raw": "from raw"},
			want:     ShapeTextWrapped,
			wantText: "from text",
		},
		{
			name:     "raw wrapped",
			payload:  map[string]any{"raw": "raw json"},
			want:     ShapeRawWrapped,
			wantText: "raw json",
		},
		{
			name:     "single string key",
			payload:  map[string]any{"output": "embedded"},
			want:     ShapeSingleString,
			wantText: "embedded",
		},
		{
			name:    "single non-string key",
			payload: map[string]any{"output": float64(1)},
			want:    ShapeUnrecognized,
		},
		{
			name:    "two unknown keys",
			payload: map[string]any{"a": "x", "b": "y"},
			want:    ShapeUnrecognized,
		},
		{
			name:    "school_name alone is not canonical",
			payload: map[string]any{"school_name": "A"},
			want:    ShapeSingleString,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, text := DetectShape(tt.payload)
			assert.Equal(t, tt.want, shape)
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, text)
			}
		})
	}
}

func TestRefineRejections(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		reason  string
	}{
		{"null payload", nil, "Data is NULL"},
		{"non-object payload", []any{1, 2}, "Could not extract JSON"},
		{"unrecognized shape", map[string]any{"a": float64(1), "b": float64(2)}, "Could not extract JSON"},
		{"text with no json", map[string]any{"text": "hello world"}, "Could not extract JSON"},
		{
			"canonical but invalid",
			map[string]any{"school_name": "A", "terms": []any{}},
			"Invalid format: Missing required field: source_url",
		},
		{
			"extracted but empty terms",
			map[string]any{"text": `{"school_name":"A","source_url":"u","terms":[]}`},
			"Invalid format: terms array is empty (no terms data)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Refine(tt.payload)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.Equal(t, tt.reason, err.Error())
		})
	}
}

func TestRefineFromWrappedText(t *testing.T) {
	payload := map[string]any{
		"text": "Here is the calendar:\n```json\n" +
			`{"school_name":"A","source_url":"u","terms":[{"academic_year":"2024-2025","term_name":"Autumn","events":[{"start_date":"2024-09-01","event_text":"Start of term"}]}]}` +
			"\n```",
	}

	doc, err := Refine(payload)
	require.NoError(t, err)

	assert.Equal(t, "A", doc["school_name"])
	assert.Equal(t, "u", doc["source_url"])

	terms := doc["terms"].([]any)
	require.Len(t, terms, 1)
	term := terms[0].(map[string]any)
	assert.Equal(t, "2024-2025", term["academic_year"])
	assert.Equal(t, "Autumn", term["term_name"])

	events := term["events"].([]any)
	require.Len(t, events, 1)
	event := events[0].(map[string]any)
	assert.Equal(t, "2024-09-01", event["start_date"])
	assert.Equal(t, "Start of term", event["event_text"])
	assert.Nil(t, event["end_date"])
	assert.Nil(t, event["time"])
}

func TestRefineDropsExtraneousKeys(t *testing.T) {
	payload := map[string]any{
		"school_name": "A",
		"source_url":  "u",
		"scraped_at":  "2024-09-01T00:00:00Z",
		"terms": []any{
			map[string]any{
				"academic_year": "2024-2025",
				"term_name":     "Autumn",
				"note":          "extraneous",
				"events": []any{
					map[string]any{
						"start_date": "2024-09-01",
						"end_date":   "2024-12-19",
						"time":       "14:00",
						"event_text": "Autumn term",
						"confidence": float64(0.9),
					},
				},
			},
		},
	}

	doc, err := Refine(payload)
	require.NoError(t, err)

	assert.NotContains(t, doc, "scraped_at")
	term := doc["terms"].([]any)[0].(map[string]any)
	assert.NotContains(t, term, "note")
	event := term["events"].([]any)[0].(map[string]any)
	assert.NotContains(t, event, "confidence")
	assert.Equal(t, "2024-12-19", event["end_date"])
	assert.Equal(t, "14:00", event["time"])
}

func TestRefineIdempotentOnValidDocument(t *testing.T) {
	doc := map[string]any{
		"school_name": "A",
		"source_url":  "u",
		"terms": []any{
			map[string]any{
				"academic_year": "2024-2025",
				"term_name":     "Autumn",
				"events": []any{
					map[string]any{
						"start_date": "2024-09-01",
						"end_date":   nil,
						"time":       nil,
						"event_text": "Start of term",
					},
				},
			},
		},
	}

	once, err := Refine(doc)
	require.NoError(t, err)
	assert.Equal(t, Normalize(doc), once)

	twice, err := Refine(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)

	require.NoError(t, Validate(once))
}
