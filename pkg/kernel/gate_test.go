package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_DefaultDeny(t *testing.T) {
	gate := NewGate()

	assert.False(t, gate.IsAllowed("unknown-agent", "echo"))
	assert.False(t, gate.IsAllowed("", ""))
}

func TestGate_GrantRevokeCycle(t *testing.T) {
	gate := NewGate()

	assert.False(t, gate.IsAllowed("agent-1", "echo"))

	gate.Grant("agent-1", "echo")
	assert.True(t, gate.IsAllowed("agent-1", "echo"))

	gate.Revoke("agent-1", "echo")
	assert.False(t, gate.IsAllowed("agent-1", "echo"))
}

func TestGate_GrantIsIdempotent(t *testing.T) {
	gate := NewGate()

	gate.Grant("agent-1", "echo")
	gate.Grant("agent-1", "echo")

	assert.True(t, gate.IsAllowed("agent-1", "echo"))
	assert.Len(t, gate.Permissions("agent-1"), 1)
}

func TestGate_RevokeUnknownIsNoOp(t *testing.T) {
	gate := NewGate()

	gate.Revoke("agent-1", "never-granted")
	assert.False(t, gate.IsAllowed("agent-1", "never-granted"))
}

func TestGate_GrantsAreScopedPerAgent(t *testing.T) {
	gate := NewGate()

	gate.Grant("agent-1", "echo")

	assert.True(t, gate.IsAllowed("agent-1", "echo"))
	assert.False(t, gate.IsAllowed("agent-2", "echo"))
	assert.False(t, gate.IsAllowed("agent-1", "other"))
}

func TestGate_EnsureAllowed(t *testing.T) {
	gate := NewGate()

	err := gate.EnsureAllowed("agent-1", "echo")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	gate.Grant("agent-1", "echo")
	assert.NoError(t, gate.EnsureAllowed("agent-1", "echo"))
}
