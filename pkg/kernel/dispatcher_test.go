package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *Registry, *Gate) {
	t.Helper()
	registry := NewRegistry()
	gate := NewGate()
	return NewDispatcher(registry, gate, nil), registry, gate
}

func TestDispatcher_InvokeCapability_NotFound(t *testing.T) {
	dispatcher, _, _ := newTestDispatcher(t)

	_, err := dispatcher.InvokeCapability(context.Background(), "agent-1", "missing", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDispatcher_InvokeCapability_ValidationRejectsBeforeHandler(t *testing.T) {
	dispatcher, registry, gate := newTestDispatcher(t)

	invocations := 0
	require.NoError(t, registry.Register(CapabilitySpec{
		ID: "greet",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {"name": {"type": "string"}},
			"required": ["name"]
		}`),
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			invocations++
			return "hello " + params["name"].(string), nil
		},
	}))
	gate.Grant("agent-1", "greet")

	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{name: "missing required field", params: map[string]interface{}{}},
		{name: "nil params", params: nil},
		{name: "wrong type", params: map[string]interface{}{"name": 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dispatcher.InvokeCapability(context.Background(), "agent-1", "greet", tt.params)
			require.Error(t, err)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, "greet", validationErr.Capability)
			assert.NotEmpty(t, validationErr.Violations)
		})
	}

	// The handler never ran on any rejected call
	assert.Equal(t, 0, invocations)
}

func TestDispatcher_InvokeCapability_PermissionDeniedBeforeHandler(t *testing.T) {
	dispatcher, registry, _ := newTestDispatcher(t)

	invocations := 0
	require.NoError(t, registry.Register(CapabilitySpec{
		ID: "side-effect",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			invocations++
			return nil, nil
		},
	}))

	_, err := dispatcher.InvokeCapability(context.Background(), "agent-1", "side-effect", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 0, invocations)
}

func TestDispatcher_InvokeCapability_Success(t *testing.T) {
	dispatcher, registry, gate := newTestDispatcher(t)

	require.NoError(t, registry.Register(CapabilitySpec{
		ID: "greet",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {"name": {"type": "string"}},
			"required": ["name"]
		}`),
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return "hello " + params["name"].(string), nil
		},
	}))
	gate.Grant("agent-1", "greet")

	result, err := dispatcher.InvokeCapability(context.Background(), "agent-1", "greet", map[string]interface{}{
		"name": "world",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", result)
}

func TestDispatcher_InvokeCapability_NoSchemaSkipsValidation(t *testing.T) {
	dispatcher, registry, gate := newTestDispatcher(t)

	require.NoError(t, registry.Register(CapabilitySpec{
		ID: "anything",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return params, nil
		},
	}))
	gate.Grant("agent-1", "anything")

	result, err := dispatcher.InvokeCapability(context.Background(), "agent-1", "anything", map[string]interface{}{
		"free": "form",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"free": "form"}, result)
}

func TestDispatcher_InvokeCapability_SchemaOnlySpec(t *testing.T) {
	dispatcher, registry, gate := newTestDispatcher(t)

	require.NoError(t, registry.Register(CapabilitySpec{
		ID:          "schema-only",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}))
	gate.Grant("agent-1", "schema-only")

	_, err := dispatcher.InvokeCapability(context.Background(), "agent-1", "schema-only", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no handler")
}

func TestDispatcher_InvokeCapability_HandlerErrorWrapped(t *testing.T) {
	dispatcher, registry, gate := newTestDispatcher(t)

	cause := errors.New("disk full")
	require.NoError(t, registry.Register(CapabilitySpec{
		ID: "flaky",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return nil, cause
		},
	}))
	gate.Grant("agent-1", "flaky")

	_, err := dispatcher.InvokeCapability(context.Background(), "agent-1", "flaky", nil)
	require.Error(t, err)

	var handlerErr *HandlerError
	require.ErrorAs(t, err, &handlerErr)
	assert.Equal(t, "flaky", handlerErr.Capability)
	assert.ErrorIs(t, err, cause)
}

func TestDispatcher_InvokeCapability_HandlerPanicWrapped(t *testing.T) {
	dispatcher, registry, gate := newTestDispatcher(t)

	require.NoError(t, registry.Register(CapabilitySpec{
		ID: "panicky",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			panic("unexpected state")
		},
	}))
	gate.Grant("agent-1", "panicky")

	_, err := dispatcher.InvokeCapability(context.Background(), "agent-1", "panicky", nil)
	require.Error(t, err)

	var handlerErr *HandlerError
	require.ErrorAs(t, err, &handlerErr)
	assert.Contains(t, handlerErr.Err.Error(), "unexpected state")
}

func TestDispatcher_InvokeModel_NoClientConfigured(t *testing.T) {
	dispatcher, _, _ := newTestDispatcher(t)

	_, err := dispatcher.InvokeModel(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeModel struct {
	lastMessages []Message
	lastSchema   json.RawMessage
}

func (f *fakeModel) Invoke(ctx context.Context, messages []Message, outputSchema json.RawMessage) (string, error) {
	f.lastMessages = messages
	f.lastSchema = outputSchema
	return "ok", nil
}

func TestDispatcher_InvokeModel_PassesSchemaThroughUnchanged(t *testing.T) {
	registry := NewRegistry()
	fake := &fakeModel{}
	dispatcher := NewDispatcher(registry, NewGate(), fake)

	schema := json.RawMessage(`{"type": "object", "required": ["answer"]}`)
	messages := []Message{{Role: "user", Content: "question"}}

	result, err := dispatcher.InvokeModel(context.Background(), messages, schema)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, messages, fake.lastMessages)
	assert.Equal(t, schema, fake.lastSchema)
}
