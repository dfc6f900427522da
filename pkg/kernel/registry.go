package kernel

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// Registry holds capability specifications keyed by identifier.
// Registration is append-only and conflict-checked: an identifier is never
// silently overwritten.
type Registry struct {
	specs   map[string]CapabilitySpec
	schemas map[string]*gojsonschema.Schema
	mu      sync.RWMutex
}

// NewRegistry creates an empty capability registry
func NewRegistry() *Registry {
	return &Registry{
		specs:   make(map[string]CapabilitySpec),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// Register inserts a spec under its identifier. Re-registering an identical
// spec is a no-op; a divergent spec under the same identifier fails with
// ErrConflict. Input schemas are compiled here so malformed schemas fail at
// registration rather than at first invocation.
func (r *Registry) Register(spec CapabilitySpec) error {
	if spec.ID == "" {
		return fmt.Errorf("capability ID is required")
	}

	var schema *gojsonschema.Schema
	if len(spec.InputSchema) > 0 {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(spec.InputSchema))
		if err != nil {
			return fmt.Errorf("invalid input schema for %s: %w", spec.ID, err)
		}
		schema = compiled
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.specs[spec.ID]; exists {
		if !equalSpecs(existing, spec) {
			return fmt.Errorf("%w: divergent spec for capability %s", ErrConflict, spec.ID)
		}
		return nil
	}

	r.specs[spec.ID] = spec
	r.schemas[spec.ID] = schema

	log.Debug().
		Str("capability", spec.ID).
		Bool("hasSchema", schema != nil).
		Bool("hasHandler", spec.Handler != nil).
		Msg("Capability registered")

	return nil
}

// Get returns the spec registered under id
func (r *Registry) Get(id string) (CapabilitySpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, exists := r.specs[id]
	if !exists {
		return CapabilitySpec{}, fmt.Errorf("%w: capability %s", ErrNotFound, id)
	}
	return spec, nil
}

// LoadFrom bulk-imports another registry's specs through the same
// conflict-checked path, merging registries built by independent collaborators.
func (r *Registry) LoadFrom(other *Registry) error {
	for _, spec := range other.List() {
		if err := r.Register(spec); err != nil {
			return err
		}
	}
	return nil
}

// List returns all registered specs
func (r *Registry) List() []CapabilitySpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]CapabilitySpec, 0, len(r.specs))
	for _, spec := range r.specs {
		result = append(result, spec)
	}
	return result
}

// Len returns the number of registered capabilities
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.specs)
}

// schema returns the compiled input schema for id, nil when the capability
// declares none
func (r *Registry) schema(id string) *gojsonschema.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemas[id]
}
