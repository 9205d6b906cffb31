package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Addon identifies the addon being packaged and what to leave out of its archive.
type Addon struct {
	Name          string   `toml:"name"`
	ManifestPath  string   `toml:"manifest_path"`
	ChangelogPath string   `toml:"changelog_path"`
	ExcludeDirs   []string `toml:"exclude_dirs"`
	ExcludeFiles  []string `toml:"exclude_files"`
}

// Paths contains directory configuration.
type Paths struct {
	AddonsDir  string `toml:"addons_dir"`
	ProjectDir string `toml:"project_dir"`
	OutputDir  string `toml:"output_dir"`
	StateDir   string `toml:"state_dir"`
}

// Publish names the sidecar and index files written next to packages.
type Publish struct {
	VersionFile string `toml:"version_file"`
	ChangesFile string `toml:"changes_file"`
	IndexFile   string `toml:"index_file"`
}

// History controls the SQLite build ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for kodipack.
//
// Configuration sections:
//   - Addon: addon name, manifest/changelog locations, exclusion sets
//   - Paths: Kodi addons root, project root, package output, local state
//   - Publish: sidecar and index file names
//   - History: build ledger location
//   - Logging: log format and level
type Config struct {
	Addon   Addon   `toml:"addon"`
	Paths   Paths   `toml:"paths"`
	Publish Publish `toml:"publish"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/kodipack/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("kodipack.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the package output directory and, when the
// history ledger is enabled, the directory holding it. The Kodi addons
// directory is never created: its absence selects the republish path.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.OutputDir, err)
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) != "" {
		dir := filepath.Dir(c.History.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}
	return nil
}

// AddonDir returns the installed location of the configured addon.
func (c *Config) AddonDir() string {
	return filepath.Join(c.Paths.AddonsDir, c.Addon.Name)
}

// ManifestPath returns the absolute path to the addon manifest.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.AddonDir(), filepath.FromSlash(c.Addon.ManifestPath))
}

// ChangelogPath returns the absolute path to the addon changelog.
func (c *Config) ChangelogPath() string {
	return filepath.Join(c.AddonDir(), filepath.FromSlash(c.Addon.ChangelogPath))
}

// WithAddon returns a copy of the config targeting a different addon name.
func (c *Config) WithAddon(name string) *Config {
	clone := *c
	clone.Addon.Name = strings.TrimSpace(name)
	clone.Addon.ExcludeDirs = append([]string(nil), c.Addon.ExcludeDirs...)
	clone.Addon.ExcludeFiles = append([]string(nil), c.Addon.ExcludeFiles...)
	return &clone
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// DefaultAddonsDir returns the Kodi addons directory for the current platform.
// APPDATA wins when set so a Windows-style layout can be pointed anywhere.
func DefaultAddonsDir() (string, error) {
	if base, ok := os.LookupEnv("APPDATA"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "Kodi", "addons"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "Kodi", "addons"), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Kodi", "addons"), nil
	default:
		return filepath.Join(home, ".kodi", "addons"), nil
	}
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
