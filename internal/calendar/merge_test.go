package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeIncomingWins(t *testing.T) {
	existing := map[string]any{"a": float64(1), "b": float64(2)}
	incoming := map[string]any{"b": float64(3), "c": float64(4)}

	merged := Merge(existing, incoming)

	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(3), "c": float64(4)}, merged)
	// Inputs untouched.
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(2)}, existing)
	assert.Equal(t, map[string]any{"b": float64(3), "c": float64(4)}, incoming)
}

func TestMergeWithEmptyExisting(t *testing.T) {
	merged := Merge(nil, map[string]any{"a": "x"})
	assert.Equal(t, map[string]any{"a": "x"}, merged)
}
