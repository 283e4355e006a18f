package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    Status
	}{
		{"nil payload", nil, StatusNull},
		{"empty object", map[string]any{}, StatusEmpty},
		{"scalar", "text", StatusInvalid},
		{"list", []any{1}, StatusInvalid},
		{"object without calendar keys", map[string]any{"text": "x"}, StatusInvalid},
		{"school_name without terms", map[string]any{"school_name": "A"}, StatusInvalid},
		{
			"both keys, empty terms",
			map[string]any{"school_name": "A", "terms": []any{}},
			StatusRefinedEmptyTerms,
		},
		{
			"both keys, terms not a list",
			map[string]any{"school_name": "A", "terms": "x"},
			StatusRefinedEmptyTerms,
		},
		{
			"both keys, populated terms",
			map[string]any{"school_name": "A", "terms": []any{map[string]any{}}},
			StatusRefined,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.payload))
			// Pure: the same payload classifies identically on repeat calls.
			assert.Equal(t, tt.want, Classify(tt.payload))
		})
	}
}

func TestClassifyDoesNotMutate(t *testing.T) {
	payload := map[string]any{"school_name": "A", "terms": []any{}}
	Classify(payload)
	assert.Equal(t, map[string]any{"school_name": "A", "terms": []any{}}, payload)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "NULL", StatusNull.String())
	assert.Equal(t, "EMPTY", StatusEmpty.String())
	assert.Equal(t, "INVALID", StatusInvalid.String())
	assert.Equal(t, "REFINED_EMPTY_TERMS", StatusRefinedEmptyTerms.String())
	assert.Equal(t, "REFINED", StatusRefined.String())
}
