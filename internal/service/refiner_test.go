package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSourceRow(t *testing.T) {
	assert.True(t, isSourceRow(map[string]any{"URN": "100000", "EstablishmentName": "Test School"}))
	assert.True(t, isSourceRow(map[string]any{"EstablishmentName": "Test School"}))
	assert.False(t, isSourceRow(map[string]any{"school_name": "Test School", "terms": []any{}}))
	assert.False(t, isSourceRow(nil))
	assert.False(t, isSourceRow("text"))
}
