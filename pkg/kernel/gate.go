package kernel

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kurobyte/agentos/internal/observability"
)

// Gate is the access-control table mapping agents to the capabilities they
// may invoke. Agents with no entry have no permissions (default-deny).
// Every decision is recorded to the audit sink; audit failures never block
// the decision path.
type Gate struct {
	perms map[string]map[string]struct{}
	mu    sync.RWMutex
}

// NewGate creates a gate with an empty permission table
func NewGate() *Gate {
	return &Gate{
		perms: make(map[string]map[string]struct{}),
	}
}

// Grant allows agent to invoke capability. Granting twice is a no-op.
func (g *Gate) Grant(agent, capability string) {
	g.mu.Lock()
	set, exists := g.perms[agent]
	if !exists {
		set = make(map[string]struct{})
		g.perms[agent] = set
	}
	set[capability] = struct{}{}
	g.mu.Unlock()

	log.Info().
		Str("agent", agent).
		Str("capability", capability).
		Msg("Permission granted")

	observability.RecordAccessAudit(agent, capability, "grant", "allow")
}

// Revoke removes agent's permission to invoke capability. Revoking a
// permission that was never granted is a no-op.
func (g *Gate) Revoke(agent, capability string) {
	g.mu.Lock()
	if set, exists := g.perms[agent]; exists {
		delete(set, capability)
	}
	g.mu.Unlock()

	log.Info().
		Str("agent", agent).
		Str("capability", capability).
		Msg("Permission revoked")

	observability.RecordAccessAudit(agent, capability, "revoke", "deny")
}

// IsAllowed reports whether agent may invoke capability. Unknown agents and
// unknown capabilities are denied.
func (g *Gate) IsAllowed(agent, capability string) bool {
	g.mu.RLock()
	set, exists := g.perms[agent]
	allowed := false
	if exists {
		_, allowed = set[capability]
	}
	g.mu.RUnlock()

	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	observability.RecordAccessAudit(agent, capability, "check", outcome)

	return allowed
}

// EnsureAllowed fails with ErrPermissionDenied when IsAllowed is false
func (g *Gate) EnsureAllowed(agent, capability string) error {
	if !g.IsAllowed(agent, capability) {
		return fmt.Errorf("%w: %s may not invoke %s", ErrPermissionDenied, agent, capability)
	}
	return nil
}

// Permissions returns a copy of the capability set granted to agent
func (g *Gate) Permissions(agent string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	set := g.perms[agent]
	result := make([]string, 0, len(set))
	for capability := range set {
		result = append(result, capability)
	}
	return result
}
