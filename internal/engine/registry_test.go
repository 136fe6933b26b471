package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	noop := GeneratorFunc(func(context.Context, GenerationContext) ([]any, error) { return []any{"v"}, nil })

	t.Run("register and lookup", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register("text.header", noop))
		g, ok := reg.Lookup("text.header")
		assert.True(t, ok)
		assert.NotNil(t, g)
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register("text.header", noop))
		err := reg.Register("text.header", noop)
		assert.ErrorContains(t, err, "already registered")
	})

	t.Run("empty name rejected", func(t *testing.T) {
		reg := NewRegistry()
		assert.Error(t, reg.Register("", noop))
	})

	t.Run("nil generator rejected", func(t *testing.T) {
		reg := NewRegistry()
		assert.Error(t, reg.Register("text.header", nil))
	})

	t.Run("unknown lookup", func(t *testing.T) {
		reg := NewRegistry()
		_, ok := reg.Lookup("text.missing")
		assert.False(t, ok)
	})

	t.Run("sources sorted", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register("text.main_text", noop))
		require.NoError(t, reg.Register("image.product", noop))
		require.NoError(t, reg.Register("text.header", noop))
		assert.Equal(t, []string{"image.product", "text.header", "text.main_text"}, reg.Sources())
	})
}
