package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/tidyarxiv/internal/logfields"
)

// ErrNotCreated is returned when the workspace is used before Create.
var ErrNotCreated = errors.New("workspace not created")

// Manager handles the lifetime of one staging directory.
type Manager struct {
	baseDir string
	tempDir string
	keep    bool
}

// NewManager creates a workspace manager rooted at baseDir (the system temp dir when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// Keep disables removal on Cleanup. The path is logged so the tree can be inspected.
func (m *Manager) Keep(keep bool) *Manager {
	m.keep = keep
	return m
}

// Create makes a new, empty, uniquely named directory.
func (m *Manager) Create() error {
	if m.tempDir != "" {
		return fmt.Errorf("workspace already created: %s", m.tempDir)
	}
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base directory: %w", err)
	}
	tempDir, err := os.MkdirTemp(m.baseDir, "tidyarxiv-*")
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.tempDir = tempDir
	slog.Debug("Created staging workspace", logfields.Path(tempDir))
	return nil
}

// GetPath returns the path to the workspace directory, empty before Create.
func (m *Manager) GetPath() string {
	return m.tempDir
}

// Join returns the absolute path of rel (slash separated) inside the workspace.
func (m *Manager) Join(rel string) (string, error) {
	if m.tempDir == "" {
		return "", ErrNotCreated
	}
	return filepath.Join(m.tempDir, filepath.FromSlash(rel)), nil
}

// Cleanup removes the workspace directory and everything below it. It is
// safe to call more than once and before Create.
func (m *Manager) Cleanup() error {
	if m.tempDir == "" {
		return nil
	}

	if m.keep {
		slog.Info("Keeping staging workspace", logfields.Path(m.tempDir))
		m.tempDir = ""
		return nil
	}

	if err := os.RemoveAll(m.tempDir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}

	slog.Debug("Cleaned up staging workspace", logfields.Path(m.tempDir))
	m.tempDir = ""
	return nil
}
