package kernel

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return params, nil
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	err := registry.Register(CapabilitySpec{
		ID:          "echo",
		Description: "Echo parameters back",
		InputSchema: json.RawMessage(`{"type": "object"}`),
		Handler:     echoHandler,
	})
	require.NoError(t, err)

	spec, err := registry.Get("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", spec.ID)
	assert.Equal(t, "Echo parameters back", spec.Description)
	assert.NotNil(t, spec.Handler)
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_Register_Validation(t *testing.T) {
	registry := NewRegistry()

	err := registry.Register(CapabilitySpec{Description: "no id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ID is required")

	err = registry.Register(CapabilitySpec{
		ID:          "broken",
		InputSchema: json.RawMessage(`{"type": 42}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input schema")
}

func TestRegistry_Register_IdempotentOnIdenticalSpec(t *testing.T) {
	registry := NewRegistry()

	spec := CapabilitySpec{
		ID:          "echo",
		Description: "Echo parameters back",
		InputSchema: json.RawMessage(`{"type": "object"}`),
		Handler:     echoHandler,
	}

	require.NoError(t, registry.Register(spec))
	require.NoError(t, registry.Register(spec))
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_Register_IdenticalSchemaDifferentFormatting(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register(CapabilitySpec{
		ID:          "echo",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"x":{"type":"string"}}}`),
	}))

	// Same document, different whitespace and key order
	err := registry.Register(CapabilitySpec{
		ID:          "echo",
		InputSchema: json.RawMessage(`{"properties": {"x": {"type": "string"}}, "type": "object"}`),
	})
	assert.NoError(t, err)
}

func TestRegistry_Register_ConflictOnDivergentSpec(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register(CapabilitySpec{
		ID:          "echo",
		Description: "Echo parameters back",
	}))

	tests := []struct {
		name string
		spec CapabilitySpec
	}{
		{
			name: "different description",
			spec: CapabilitySpec{ID: "echo", Description: "Something else"},
		},
		{
			name: "different schema",
			spec: CapabilitySpec{
				ID:          "echo",
				Description: "Echo parameters back",
				InputSchema: json.RawMessage(`{"type": "object"}`),
			},
		},
		{
			name: "handler added",
			spec: CapabilitySpec{
				ID:          "echo",
				Description: "Echo parameters back",
				Handler:     echoHandler,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.Register(tt.spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConflict)
		})
	}

	// Registry unchanged after the failed attempts
	assert.Equal(t, 1, registry.Len())
	spec, err := registry.Get("echo")
	require.NoError(t, err)
	assert.Equal(t, "Echo parameters back", spec.Description)
}

func TestRegistry_Get_NotFound(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_LoadFrom(t *testing.T) {
	source := NewRegistry()
	require.NoError(t, source.Register(CapabilitySpec{ID: "a", Description: "first"}))
	require.NoError(t, source.Register(CapabilitySpec{ID: "b", Description: "second"}))

	target := NewRegistry()
	require.NoError(t, target.Register(CapabilitySpec{ID: "a", Description: "first"}))

	require.NoError(t, target.LoadFrom(source))
	assert.Equal(t, 2, target.Len())
}

func TestRegistry_LoadFrom_Conflict(t *testing.T) {
	source := NewRegistry()
	require.NoError(t, source.Register(CapabilitySpec{ID: "a", Description: "theirs"}))

	target := NewRegistry()
	require.NoError(t, target.Register(CapabilitySpec{ID: "a", Description: "ours"}))

	err := target.LoadFrom(source)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}
