// Package kernel implements the agent kernel: a cooperative scheduler that
// interleaves long-running agent task streams, a conflict-checked capability
// registry with schema-validated dispatch, a default-deny access gate with
// audit logging, and per-agent memory and sandboxed storage.
//
// Invariants:
// - Registration paths are append-only and conflict-checked, never silently overwritten.
// - Rejected syscalls (validation or permission) perform no side effects.
// - Equal-priority tasks are serviced in deterministic registration order.
// - Vault paths never resolve outside the sandbox root, even through symlinks.
//
// Usage:
//
//	k, _ := kernel.New(kernel.Options{Strategy: kernel.StrategyRoundRobin, BaseDir: "/data/vault"})
//	_ = k.Registry.Register(kernel.CapabilitySpec{ID: "echo", Handler: echo})
//	k.Gate.Grant("agent-1", "echo")
//	_ = k.Scheduler.RegisterTask("agent-1", stream, 0)
//	results, _ := k.Scheduler.Drain(ctx)
//	_ = results
package kernel
