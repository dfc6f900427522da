package kernel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Vault provides per-agent sandboxed file storage under a fixed base
// directory. Every path is resolved before any I/O; a resolved path that
// leaves the base directory fails with ErrOutOfBounds, including paths with
// ".." segments, absolute-path injection, and symlinks pointing outside.
type Vault struct {
	baseDir string
}

// NewVault creates a vault rooted at baseDir, creating it if needed
func NewVault(baseDir string) (*Vault, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}

	// Resolve the base once so symlinked base dirs (macOS /tmp) compare
	// against their real location
	resolved, err := filepath.EvalSymlinks(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault directory: %w", err)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault directory: %w", err)
	}

	return &Vault{baseDir: abs}, nil
}

// BaseDir returns the resolved sandbox root
func (v *Vault) BaseDir() string {
	return v.baseDir
}

// WriteText stores text under the agent's sandbox
func (v *Vault) WriteText(agentID, filename, text string) error {
	return v.WriteBytes(agentID, filename, []byte(text))
}

// ReadText reads a file from the agent's sandbox
func (v *Vault) ReadText(agentID, filename string) (string, error) {
	data, err := v.ReadBytes(agentID, filename)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteBytes stores data under the agent's sandbox
func (v *Vault) WriteBytes(agentID, filename string, data []byte) error {
	path, err := v.resolve(agentID, filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create agent directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}

	log.Debug().
		Str("agent", agentID).
		Str("file", filename).
		Int("bytes", len(data)).
		Msg("Vault write")

	return nil
}

// ReadBytes reads a file from the agent's sandbox
func (v *Vault) ReadBytes(agentID, filename string) ([]byte, error) {
	path, err := v.resolve(agentID, filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return data, nil
}

// List returns the filenames currently stored in the agent's sandbox.
// An agent that has never written yields an empty list.
func (v *Vault) List(agentID string) ([]string, error) {
	if err := validAgentID(agentID); err != nil {
		return nil, err
	}

	agentDir := filepath.Join(v.baseDir, agentID)
	entries, err := os.ReadDir(agentDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list agent directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// resolve maps (agent, filename) to an absolute path and enforces the
// containment invariant before any I/O happens
func (v *Vault) resolve(agentID, filename string) (string, error) {
	if err := validAgentID(agentID); err != nil {
		return "", err
	}
	if filename == "" {
		return "", fmt.Errorf("filename is required")
	}
	if filepath.IsAbs(filename) {
		return "", fmt.Errorf("%w: %s", ErrOutOfBounds, filename)
	}

	agentDir := filepath.Join(v.baseDir, agentID)
	path := filepath.Join(agentDir, filename)
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", filename, err)
	}

	if !contained(agentDir, abs) {
		return "", fmt.Errorf("%w: %s", ErrOutOfBounds, filename)
	}

	// Re-check through symlinks: resolve the deepest existing ancestor so a
	// link planted inside the sandbox cannot point writes outside it
	real, err := resolveExisting(abs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", filename, err)
	}
	if !contained(v.baseDir, real) {
		return "", fmt.Errorf("%w: %s", ErrOutOfBounds, filename)
	}

	return abs, nil
}

// validAgentID requires agent IDs to be a single clean path segment since
// they name the sandbox subdirectory
func validAgentID(agentID string) error {
	if agentID == "" {
		return fmt.Errorf("agent ID is required")
	}
	if agentID != filepath.Base(filepath.Clean(agentID)) || agentID == ".." || agentID == "." {
		return fmt.Errorf("%w: invalid agent ID %q", ErrOutOfBounds, agentID)
	}
	return nil
}

// contained reports whether path is root or inside root
func contained(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..")
}

// resolveExisting evaluates symlinks for the longest existing prefix of
// path, then rejoins the not-yet-created remainder
func resolveExisting(path string) (string, error) {
	remainder := ""
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(resolved, remainder), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing ancestor for %s", path)
		}
		remainder = filepath.Join(filepath.Base(current), remainder)
		current = parent
	}
}
