package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePort(t *testing.T) {
	t.Run("flag default with no env", func(t *testing.T) {
		assert.Equal(t, "8080", resolvePort("8080", "", false))
	})

	t.Run("env overrides flag default", func(t *testing.T) {
		assert.Equal(t, "9090", resolvePort("8080", "9090", false))
	})

	t.Run("explicit flag beats env", func(t *testing.T) {
		assert.Equal(t, "3000", resolvePort("3000", "9090", true))
	})

	t.Run("explicit flag equal to the default still beats env", func(t *testing.T) {
		assert.Equal(t, "8080", resolvePort("8080", "9090", true))
	})
}
