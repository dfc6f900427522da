package config

import (
	"encoding/json"
	"path/filepath"
)

// Config is the main agentos configuration
type Config struct {
	// Data directory (vault, memory database, audit log default here)
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Scheduler
	Scheduler SchedulerConfig `json:"scheduler" mapstructure:"scheduler"`

	// Storage vault
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Working memory
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Audit sink
	Audit AuditConfig `json:"audit" mapstructure:"audit"`

	// Model collaborator
	Model ModelConfig `json:"model" mapstructure:"model"`
}

// SchedulerConfig selects the task ordering policy
type SchedulerConfig struct {
	Strategy string `json:"strategy" mapstructure:"strategy"` // fifo, round_robin
}

// StorageConfig holds vault settings
type StorageConfig struct {
	BaseDir string `json:"base_dir" mapstructure:"base_dir"`
}

// MemoryConfig holds working-memory settings
type MemoryConfig struct {
	Backend string `json:"backend" mapstructure:"backend"` // inmemory, sqlite
	DBPath  string `json:"db_path" mapstructure:"db_path"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// AuditConfig holds audit sink settings
type AuditConfig struct {
	File string `json:"file" mapstructure:"file"`
}

// ModelConfig holds LLM collaborator settings
type ModelConfig struct {
	Provider    string  `json:"provider" mapstructure:"provider"` // anthropic, openai, ""
	APIKey      string  `json:"api_key" mapstructure:"api_key"`
	Model       string  `json:"model" mapstructure:"model"`
	MaxTokens   int     `json:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			Strategy: "fifo",
		},
		Memory: MemoryConfig{
			Backend: "inmemory",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// ApplyDefaults fills derived paths once the data directory is known
func (c *Config) ApplyDefaults() {
	if c.Storage.BaseDir == "" {
		c.Storage.BaseDir = filepath.Join(c.DataDir, "vault")
	}
	if c.Memory.Backend == "sqlite" && c.Memory.DBPath == "" {
		c.Memory.DBPath = filepath.Join(c.DataDir, "memory.db")
	}
	if c.Audit.File == "" {
		c.Audit.File = filepath.Join(c.DataDir, "audit.log")
	}
}

// String returns the config as indented JSON with secrets redacted
func (c *Config) String() string {
	clone := *c
	if clone.Model.APIKey != "" {
		clone.Model.APIKey = "[REDACTED]"
	}
	data, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
