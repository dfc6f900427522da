package kernel

import (
	"fmt"
	"path/filepath"
)

// Options configures kernel assembly
type Options struct {
	// Strategy selects the scheduler ordering policy (defaults to fifo)
	Strategy Strategy

	// BaseDir is the storage vault root
	BaseDir string

	// MemoryFactory backs per-agent memory logs (defaults to in-process)
	MemoryFactory StoreFactory

	// Model is the LLM collaborator behind InvokeModel (optional)
	Model ModelClient
}

// Kernel wires the registry, gate, dispatcher, scheduler, memory manager,
// and vault into one explicitly-owned assembly. There is no ambient global
// state: callers hold the kernel and hand its components to collaborators.
type Kernel struct {
	Registry   *Registry
	Gate       *Gate
	Dispatcher *Dispatcher
	Scheduler  *Scheduler
	Memory     *MemoryManager
	Vault      *Vault
}

// New assembles a kernel from opts
func New(opts Options) (*Kernel, error) {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyFIFO
	}

	scheduler, err := NewScheduler(strategy)
	if err != nil {
		return nil, err
	}

	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = filepath.Join(".", "vault")
	}
	vault, err := NewVault(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault: %w", err)
	}

	registry := NewRegistry()
	gate := NewGate()

	return &Kernel{
		Registry:   registry,
		Gate:       gate,
		Dispatcher: NewDispatcher(registry, gate, opts.Model),
		Scheduler:  scheduler,
		Memory:     NewMemoryManager(opts.MemoryFactory),
		Vault:      vault,
	}, nil
}
