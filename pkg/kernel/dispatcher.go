package kernel

import (
	"context"
	"encoding/json"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/kurobyte/agentos/internal/observability"
)

// Dispatcher is the syscall path between agents and capabilities: it
// validates parameters against the capability's schema, enforces the access
// gate, invokes the handler, and normalizes failures. It holds no mutable
// state besides references to the registry, gate, and model collaborator.
type Dispatcher struct {
	registry *Registry
	gate     *Gate
	model    ModelClient
}

// NewDispatcher creates a dispatcher over the given registry and gate.
// model may be nil when no LLM collaborator is configured.
func NewDispatcher(registry *Registry, gate *Gate, model ModelClient) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		gate:     gate,
		model:    model,
	}
}

// InvokeCapability validates, authorizes, and executes a capability on
// behalf of agent. Validation and permission failures are raised before the
// handler runs, so a rejected call performs no side effects.
func (d *Dispatcher) InvokeCapability(ctx context.Context, agent, capabilityID string, params map[string]interface{}) (interface{}, error) {
	invocationID, _ := gonanoid.New()

	spec, err := d.registry.Get(capabilityID)
	if err != nil {
		return nil, err
	}
	if spec.Handler == nil {
		return nil, fmt.Errorf("capability %s is schema-only and has no handler", capabilityID)
	}

	if schema := d.registry.schema(capabilityID); schema != nil {
		if err := validateParams(capabilityID, schema, params); err != nil {
			observability.RecordSyscallAudit(agent, capabilityID, "rejected", map[string]interface{}{
				"invocationId": invocationID,
				"reason":       "validation",
			})
			return nil, err
		}
	}

	if err := d.gate.EnsureAllowed(agent, capabilityID); err != nil {
		observability.RecordSyscallAudit(agent, capabilityID, "rejected", map[string]interface{}{
			"invocationId": invocationID,
			"reason":       "permission",
		})
		return nil, err
	}

	log.Debug().
		Str("invocationId", invocationID).
		Str("agent", agent).
		Str("capability", capabilityID).
		Msg("Invoking capability")

	result, err := d.invoke(ctx, spec, params)
	if err != nil {
		observability.RecordSyscallAudit(agent, capabilityID, "failure", map[string]interface{}{
			"invocationId": invocationID,
		})
		return nil, &HandlerError{Capability: capabilityID, Err: err}
	}

	observability.RecordSyscallAudit(agent, capabilityID, "success", map[string]interface{}{
		"invocationId": invocationID,
	})

	return result, nil
}

// invoke runs the handler, converting panics into ordinary errors so the
// original cause survives inside the HandlerError wrapper
func (d *Dispatcher) invoke(ctx context.Context, spec CapabilitySpec, params map[string]interface{}) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return spec.Handler(ctx, params)
}

// InvokeModel delegates to the LLM collaborator, passing the output schema
// through unchanged
func (d *Dispatcher) InvokeModel(ctx context.Context, messages []Message, outputSchema json.RawMessage) (string, error) {
	if d.model == nil {
		return "", fmt.Errorf("%w: no model client configured", ErrNotFound)
	}
	return d.model.Invoke(ctx, messages, outputSchema)
}

// validateParams checks params against a compiled schema, collecting every
// violation into a single ValidationError
func validateParams(capabilityID string, schema *gojsonschema.Schema, params map[string]interface{}) error {
	if params == nil {
		params = map[string]interface{}{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return &ValidationError{Capability: capabilityID, Violations: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		violations = append(violations, violation.String())
	}
	return &ValidationError{Capability: capabilityID, Violations: violations}
}
