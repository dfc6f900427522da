package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration values before the kernel is assembled
func Validate(cfg *Config) error {
	switch cfg.Scheduler.Strategy {
	case "fifo", "round_robin":
	default:
		return fmt.Errorf("scheduler strategy must be fifo or round_robin, got %q", cfg.Scheduler.Strategy)
	}

	switch cfg.Memory.Backend {
	case "inmemory":
	case "sqlite":
		if cfg.Memory.DBPath == "" {
			return fmt.Errorf("memory db_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("memory backend must be inmemory or sqlite, got %q", cfg.Memory.Backend)
	}

	if cfg.Model.Provider != "" {
		if err := validateAPIKey(cfg.Model.APIKey, cfg.Model.Provider); err != nil {
			return err
		}
		if cfg.Model.Model == "" {
			return fmt.Errorf("model name is required when a provider is configured")
		}
	}

	return nil
}

// validateAPIKey checks provider API key formats
func validateAPIKey(key, provider string) error {
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	default:
		return fmt.Errorf("unsupported model provider: %s", provider)
	}

	return nil
}
