// Package model provides LLM-backed implementations of kernel.ModelClient.
// The dispatcher's model syscall is a pure pass-through: providers receive
// the caller's messages and output schema unchanged.
package model

import (
	"fmt"

	"github.com/kurobyte/agentos/pkg/kernel"
)

// Structured-output responses are requested through a forced tool carrying
// the caller's schema, so providers without a native JSON mode still honor it.
const structuredOutputTool = "structured_output"

// Config selects and configures a model provider
type Config struct {
	Provider    string  `json:"provider"` // anthropic, openai
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// New creates a ModelClient for the configured provider
func New(cfg Config) (kernel.ModelClient, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	switch cfg.Provider {
	case "anthropic":
		return NewAnthropic(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
