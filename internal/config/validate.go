package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAddon(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAddon() error {
	if err := ensurePlainName("addon.name", c.Addon.Name); err != nil {
		return err
	}
	for key, rel := range map[string]string{
		"addon.manifest_path":  c.Addon.ManifestPath,
		"addon.changelog_path": c.Addon.ChangelogPath,
	} {
		if strings.TrimSpace(rel) == "" {
			return fmt.Errorf("%s must be set", key)
		}
		if filepath.IsAbs(rel) {
			return fmt.Errorf("%s must be relative to the addon directory", key)
		}
		if cleaned := filepath.ToSlash(filepath.Clean(rel)); cleaned == ".." || strings.HasPrefix(cleaned, "../") {
			return fmt.Errorf("%s must stay inside the addon directory", key)
		}
	}
	for _, name := range c.Addon.ExcludeDirs {
		if err := ensurePlainName("addon.exclude_dirs", name); err != nil {
			return err
		}
	}
	for _, name := range c.Addon.ExcludeFiles {
		if err := ensurePlainName("addon.exclude_files", name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.AddonsDir) == "" {
		return errors.New("paths.addons_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if filepath.Clean(c.Paths.OutputDir) == filepath.Clean(c.AddonDir()) {
		return errors.New("paths.output_dir must not be the addon directory")
	}
	return nil
}

func (c *Config) validatePublish() error {
	if err := ensurePlainName("publish.version_file", c.Publish.VersionFile); err != nil {
		return err
	}
	if err := ensurePlainName("publish.changes_file", c.Publish.ChangesFile); err != nil {
		return err
	}
	if err := ensurePlainName("publish.index_file", c.Publish.IndexFile); err != nil {
		return err
	}
	if c.Publish.VersionFile == c.Publish.ChangesFile || c.Publish.VersionFile == c.Publish.IndexFile || c.Publish.ChangesFile == c.Publish.IndexFile {
		return errors.New("publish.version_file, publish.changes_file and publish.index_file must differ")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

// ensurePlainName rejects values that would escape the directory they are joined to.
func ensurePlainName(key, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%s must be set", key)
	}
	if trimmed == "." || trimmed == ".." || strings.ContainsAny(trimmed, `/\`) {
		return fmt.Errorf("%s: %q must be a plain file or directory name", key, value)
	}
	return nil
}
