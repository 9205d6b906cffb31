package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeAddon()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePublish()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeAddon() {
	c.Addon.Name = strings.TrimSpace(c.Addon.Name)
	if c.Addon.Name == "" {
		if value, ok := os.LookupEnv("KODIPACK_ADDON"); ok {
			c.Addon.Name = strings.TrimSpace(value)
		}
	}
	if c.Addon.Name == "" {
		c.Addon.Name = defaultAddonName
	}
	c.Addon.ManifestPath = strings.TrimSpace(c.Addon.ManifestPath)
	if c.Addon.ManifestPath == "" {
		c.Addon.ManifestPath = defaultManifestPath
	}
	c.Addon.ChangelogPath = strings.TrimSpace(c.Addon.ChangelogPath)
	if c.Addon.ChangelogPath == "" {
		c.Addon.ChangelogPath = defaultChangelogPath
	}
	// An explicit empty list in the file means "exclude nothing".
	if c.Addon.ExcludeDirs == nil {
		c.Addon.ExcludeDirs = defaultExcludeDirs()
	}
	if c.Addon.ExcludeFiles == nil {
		c.Addon.ExcludeFiles = defaultExcludeFiles()
	}
	c.Addon.ExcludeDirs = dedupeNames(c.Addon.ExcludeDirs)
	c.Addon.ExcludeFiles = dedupeNames(c.Addon.ExcludeFiles)
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.AddonsDir) == "" {
		if c.Paths.AddonsDir, err = DefaultAddonsDir(); err != nil {
			return fmt.Errorf("paths.addons_dir: %w", err)
		}
	}
	if c.Paths.AddonsDir, err = expandPath(c.Paths.AddonsDir); err != nil {
		return fmt.Errorf("paths.addons_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ProjectDir) == "" {
		c.Paths.ProjectDir = defaultProjectDir
	}
	if c.Paths.ProjectDir, err = expandPath(c.Paths.ProjectDir); err != nil {
		return fmt.Errorf("paths.project_dir: %w", err)
	}
	output := strings.TrimSpace(c.Paths.OutputDir)
	if output == "" {
		output = defaultOutputDir
	}
	// Relative output directories hang off the project root, not the cwd.
	if !strings.HasPrefix(output, "~") && !filepath.IsAbs(output) {
		output = filepath.Join(c.Paths.ProjectDir, output)
	}
	if c.Paths.OutputDir, err = expandPath(output); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePublish() {
	c.Publish.VersionFile = strings.TrimSpace(c.Publish.VersionFile)
	if c.Publish.VersionFile == "" {
		c.Publish.VersionFile = defaultVersionFile
	}
	c.Publish.ChangesFile = strings.TrimSpace(c.Publish.ChangesFile)
	if c.Publish.ChangesFile == "" {
		c.Publish.ChangesFile = defaultChangesFile
	}
	c.Publish.IndexFile = strings.TrimSpace(c.Publish.IndexFile)
	if c.Publish.IndexFile == "" {
		c.Publish.IndexFile = defaultIndexFile
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, defaultHistoryFile)
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func dedupeNames(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
