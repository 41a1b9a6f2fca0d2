// Package utils contains the filesystem layout and file logger shared by the
// Sentinel server and its tools.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves filesystem locations under a single Sentinel root directory.
type Paths struct {
	RootPath string `json:"root_path"`
}

// NewPaths constructs Paths rooted at the specified directory.
func NewPaths(rootPath string) *Paths {
	return &Paths{RootPath: rootPath}
}

// LogsDir returns the directory holding server logs.
func (p *Paths) LogsDir() string {
	return filepath.Join(p.RootPath, "logs")
}

// ConfigDir returns the application configuration directory.
func (p *Paths) ConfigDir() string {
	return filepath.Join(p.RootPath, "config")
}

// DataDir returns the directory for the user database and telemetry fixtures.
func (p *Paths) DataDir() string {
	return filepath.Join(p.RootPath, "data")
}

// ConfigFile returns the default JSON configuration path.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir(), "sentinel.config")
}

// DatabaseFile returns the default SQLite database path.
func (p *Paths) DatabaseFile() string {
	return filepath.Join(p.DataDir(), "system_sentinel.db")
}

// FixtureFile returns the default telemetry fixture path.
func (p *Paths) FixtureFile() string {
	return filepath.Join(p.DataDir(), "mockData.json")
}

// LogFile returns the main server log file path.
func (p *Paths) LogFile() string {
	return filepath.Join(p.LogsDir(), "sentinel.log")
}

// Resolve returns path unchanged when absolute, otherwise joins it onto the root.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.RootPath, path)
}

// EnsureDirs creates the core directories under the root path.
func (p *Paths) EnsureDirs() error {
	for _, dir := range []string{p.LogsDir(), p.ConfigDir(), p.DataDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
