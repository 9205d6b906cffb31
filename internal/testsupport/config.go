package testsupport

import (
	"fmt"
	"path/filepath"
	"testing"

	"kodipack/internal/config"
)

// DefaultAddon is the addon name used by generated test configs.
const DefaultAddon = "plugin.video.fenlight"

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The addons directory is not created; use WithInstalledAddon to install one.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Addon.Name = DefaultAddon
	cfgVal.Paths.AddonsDir = filepath.Join(base, "appdata", "Kodi", "addons")
	cfgVal.Paths.ProjectDir = filepath.Join(base, "project")
	cfgVal.Paths.OutputDir = filepath.Join(base, "project", "packages")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.History.Enabled = false
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithAddonName overrides the addon name on the test config.
func WithAddonName(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Addon.Name = name
	}
}

// WithHistory enables the SQLite build ledger under the test state directory.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithInstalledAddon writes a minimal installed addon declaring version, plus
// any extra files keyed by slash-separated relative path.
func WithInstalledAddon(version string, extra map[string]string) ConfigOption {
	return func(b *configBuilder) {
		files := map[string]string{
			b.cfg.Addon.ManifestPath: Manifest(b.cfg.Addon.Name, version),
		}
		for rel, contents := range extra {
			files[rel] = contents
		}
		WriteTree(b.t, b.cfg.AddonDir(), files)
	}
}

// Manifest renders an addon.xml with the version attribute on the first line.
func Manifest(name, version string) string {
	return fmt.Sprintf("<addon id=%q version=%q name=\"Test\" provider-name=\"kodipack\">\n"+
		"  <requires>\n    <import addon=\"xbmc.python\" version=\"3.0.0\"/>\n  </requires>\n</addon>\n", name, version)
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
