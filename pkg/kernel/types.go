package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
)

// Handler executes a capability with validated parameters.
// Handlers that need to suspend (LLM calls, subprocesses) simply block;
// the scheduler never preempts mid-step.
type Handler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// CapabilitySpec describes a capability an agent may invoke.
// Handler may be nil for schema-only specs shared between collaborators.
type CapabilitySpec struct {
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	InputSchema  json.RawMessage `json:"input_schema,omitempty"`
	OutputSchema json.RawMessage `json:"output_schema,omitempty"`
	Handler      Handler         `json:"-"`
}

// Message is a provider-agnostic chat message passed through InvokeModel
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelClient is the LLM collaborator behind the dispatcher's model syscall
type ModelClient interface {
	// Invoke sends messages to the model. When outputSchema is non-nil the
	// provider must constrain the response to that JSON schema.
	Invoke(ctx context.Context, messages []Message, outputSchema json.RawMessage) (string, error)
}

// equalSpecs reports whether two specs are structurally identical.
// Handlers are compared by function identity since behavior is opaque.
func equalSpecs(a, b CapabilitySpec) bool {
	if a.ID != b.ID || a.Description != b.Description {
		return false
	}
	if !equalSchemas(a.InputSchema, b.InputSchema) || !equalSchemas(a.OutputSchema, b.OutputSchema) {
		return false
	}
	return handlerPointer(a.Handler) == handlerPointer(b.Handler)
}

// equalSchemas compares schema documents structurally, ignoring formatting
func equalSchemas(a, b json.RawMessage) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == 0 && len(b) == 0
	}
	if bytes.Equal(a, b) {
		return true
	}
	var av, bv interface{}
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}

func handlerPointer(h Handler) uintptr {
	if h == nil {
		return 0
	}
	return reflect.ValueOf(h).Pointer()
}
