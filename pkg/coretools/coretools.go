// Package coretools registers the kernel's built-in capabilities: working
// memory access, vault storage, and validated command execution. All specs
// go through the registry's conflict-checked path.
package coretools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/kurobyte/agentos/pkg/kernel"
)

// CommandValidator decides whether a command may run. Command-safety policy
// is supplied by the embedding system, not implemented here.
type CommandValidator func(command string, args []string) error

// Options configures core capability registration
type Options struct {
	Memory *kernel.MemoryManager
	Vault  *kernel.Vault

	// CommandValidator guards os.exec; when nil every command is admitted
	CommandValidator CommandValidator

	// ExecTimeout bounds os.exec runs (defaults to 30s)
	ExecTimeout time.Duration
}

// Register adds the built-in capabilities to reg
func Register(reg *kernel.Registry, opts Options) error {
	if reg == nil {
		return errors.New("registry is required")
	}

	specs := []kernel.CapabilitySpec{}
	if opts.Memory != nil {
		specs = append(specs, rememberSpec(opts.Memory), recallSpec(opts.Memory))
	}
	if opts.Vault != nil {
		specs = append(specs, storageWriteSpec(opts.Vault), storageReadSpec(opts.Vault))
	}
	specs = append(specs, execSpec(opts))

	for _, spec := range specs {
		if err := reg.Register(spec); err != nil {
			return fmt.Errorf("failed to register capability %s: %w", spec.ID, err)
		}
	}
	return nil
}

func rememberSpec(memory *kernel.MemoryManager) kernel.CapabilitySpec {
	return kernel.CapabilitySpec{
		ID:          "memory.remember",
		Description: "Append text to an agent's working memory.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"agent_id": {"type": "string"},
				"text": {"type": "string"}
			},
			"required": ["agent_id", "text"]
		}`),
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			agentID, _ := params["agent_id"].(string)
			text, _ := params["text"].(string)
			if err := memory.Remember(ctx, agentID, text); err != nil {
				return nil, err
			}
			return map[string]interface{}{"stored": true}, nil
		},
	}
}

func recallSpec(memory *kernel.MemoryManager) kernel.CapabilitySpec {
	return kernel.CapabilitySpec{
		ID:          "memory.recall",
		Description: "Retrieve recent entries from an agent's working memory.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"agent_id": {"type": "string"},
				"limit": {"type": "integer", "minimum": 0}
			},
			"required": ["agent_id"]
		}`),
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			agentID, _ := params["agent_id"].(string)
			limit := 0
			switch val := params["limit"].(type) {
			case float64:
				limit = int(val)
			case int:
				limit = val
			}
			entries, err := memory.Recall(ctx, agentID, limit)
			if err != nil {
				return nil, err
			}
			texts := make([]string, len(entries))
			for i, entry := range entries {
				texts[i] = entry.Text
			}
			return map[string]interface{}{"entries": texts}, nil
		},
	}
}

func storageWriteSpec(vault *kernel.Vault) kernel.CapabilitySpec {
	return kernel.CapabilitySpec{
		ID:          "storage.write",
		Description: "Write a file into an agent's storage sandbox.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"agent_id": {"type": "string"},
				"filename": {"type": "string"},
				"content": {"type": "string"}
			},
			"required": ["agent_id", "filename", "content"]
		}`),
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			agentID, _ := params["agent_id"].(string)
			filename, _ := params["filename"].(string)
			content, _ := params["content"].(string)
			if err := vault.WriteText(agentID, filename, content); err != nil {
				return nil, err
			}
			return map[string]interface{}{"written": len(content)}, nil
		},
	}
}

func storageReadSpec(vault *kernel.Vault) kernel.CapabilitySpec {
	return kernel.CapabilitySpec{
		ID:          "storage.read",
		Description: "Read a file from an agent's storage sandbox.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"agent_id": {"type": "string"},
				"filename": {"type": "string"}
			},
			"required": ["agent_id", "filename"]
		}`),
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			agentID, _ := params["agent_id"].(string)
			filename, _ := params["filename"].(string)
			content, err := vault.ReadText(agentID, filename)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"content": content}, nil
		},
	}
}

func execSpec(opts Options) kernel.CapabilitySpec {
	timeout := opts.ExecTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return kernel.CapabilitySpec{
		ID:          "os.exec",
		Description: "Run a command after the configured validator admits it.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"command": {"type": "string"},
				"args": {"type": "array", "items": {"type": "string"}},
				"stdin": {"type": "string"}
			},
			"required": ["command"]
		}`),
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			command, _ := params["command"].(string)
			args := []string{}
			if raw, ok := params["args"].([]interface{}); ok {
				for _, v := range raw {
					if s, ok := v.(string); ok {
						args = append(args, s)
					}
				}
			}

			if opts.CommandValidator != nil {
				if err := opts.CommandValidator(command, args); err != nil {
					return nil, fmt.Errorf("command rejected: %w", err)
				}
			}

			execCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			cmd := exec.CommandContext(execCtx, command, args...)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			if stdin, ok := params["stdin"].(string); ok && stdin != "" {
				cmd.Stdin = bytes.NewReader([]byte(stdin))
			}

			err := cmd.Run()
			exitCode := 0
			if err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					exitCode = exitErr.ExitCode()
				} else {
					return nil, err
				}
			}

			return map[string]interface{}{
				"stdout":    stdout.String(),
				"stderr":    stderr.String(),
				"exit_code": exitCode,
			}, nil
		},
	}
}
