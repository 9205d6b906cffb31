package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"kodipack/internal/config"
)

func TestLoadDefaultConfigUsesAppDataAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	appData := filepath.Join(tempHome, "AppData", "Roaming")
	t.Setenv("HOME", tempHome)
	t.Setenv("APPDATA", appData)
	t.Setenv("KODIPACK_ADDON", "")
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Addon.Name != "plugin.video.fenlight" {
		t.Fatalf("unexpected addon name: %q", cfg.Addon.Name)
	}
	wantAddons := filepath.Join(appData, "Kodi", "addons")
	if cfg.Paths.AddonsDir != wantAddons {
		t.Fatalf("unexpected addons dir: got %q want %q", cfg.Paths.AddonsDir, wantAddons)
	}
	if cfg.AddonDir() != filepath.Join(wantAddons, "plugin.video.fenlight") {
		t.Fatalf("unexpected addon dir: %q", cfg.AddonDir())
	}
	if cfg.ManifestPath() != filepath.Join(cfg.AddonDir(), "addon.xml") {
		t.Fatalf("unexpected manifest path: %q", cfg.ManifestPath())
	}
	if cfg.ChangelogPath() != filepath.Join(cfg.AddonDir(), "resources", "text", "changelog.txt") {
		t.Fatalf("unexpected changelog path: %q", cfg.ChangelogPath())
	}
	if cfg.Paths.OutputDir != filepath.Join(cfg.Paths.ProjectDir, "packages") {
		t.Fatalf("output dir should hang off project dir, got %q", cfg.Paths.OutputDir)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "kodipack")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.History.Path != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}
	if cfg.Publish.VersionFile != "fenlight_version" || cfg.Publish.ChangesFile != "fenlight_changes" {
		t.Fatalf("unexpected sidecar names: %+v", cfg.Publish)
	}
	if strings.Join(cfg.Addon.ExcludeDirs, ",") != ".git,__pycache__" {
		t.Fatalf("unexpected exclude dirs: %v", cfg.Addon.ExcludeDirs)
	}
	if strings.Join(cfg.Addon.ExcludeFiles, ",") != ".gitignore" {
		t.Fatalf("unexpected exclude files: %v", cfg.Addon.ExcludeFiles)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, filepath.Dir(cfg.History.Path)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if _, err := os.Stat(cfg.Paths.AddonsDir); !os.IsNotExist(err) {
		t.Fatalf("addons dir must not be created, stat err=%v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "kodipack.toml")

	type payload struct {
		Addon struct {
			Name        string   `toml:"name"`
			ExcludeDirs []string `toml:"exclude_dirs"`
		} `toml:"addon"`
		Paths struct {
			AddonsDir  string `toml:"addons_dir"`
			ProjectDir string `toml:"project_dir"`
			OutputDir  string `toml:"output_dir"`
		} `toml:"paths"`
		Publish struct {
			VersionFile string `toml:"version_file"`
		} `toml:"publish"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Addon.Name = "script.module.example"
	custom.Addon.ExcludeDirs = []string{".git", " .git ", "node_modules"}
	custom.Paths.AddonsDir = filepath.Join(tempDir, "addons")
	custom.Paths.ProjectDir = filepath.Join(tempDir, "site")
	custom.Paths.OutputDir = "dist"
	custom.Publish.VersionFile = "example_version"
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "DEBUG"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Addon.Name != "script.module.example" {
		t.Fatalf("expected addon name from file, got %q", cfg.Addon.Name)
	}
	if strings.Join(cfg.Addon.ExcludeDirs, ",") != ".git,node_modules" {
		t.Fatalf("expected deduplicated exclude dirs, got %v", cfg.Addon.ExcludeDirs)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempDir, "site", "dist") {
		t.Fatalf("expected output dir under project dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Publish.VersionFile != "example_version" {
		t.Fatalf("expected version file override, got %q", cfg.Publish.VersionFile)
	}
	if cfg.Publish.ChangesFile != "fenlight_changes" {
		t.Fatalf("expected default changes file, got %q", cfg.Publish.ChangesFile)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging settings, got %+v", cfg.Logging)
	}
}

func TestAddonNameFallsBackToEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KODIPACK_ADDON", "  plugin.audio.radio  ")
	configPath := filepath.Join(t.TempDir(), "missing.toml")

	cfg, _, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.Addon.Name != "plugin.audio.radio" {
		t.Fatalf("expected addon name from env, got %q", cfg.Addon.Name)
	}
}

func TestEmptyExcludeListDisablesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "kodipack.toml")
	contents := "[addon]\nexclude_dirs = []\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.Addon.ExcludeDirs) != 0 {
		t.Fatalf("expected no excluded dirs, got %v", cfg.Addon.ExcludeDirs)
	}
	if len(cfg.Addon.ExcludeFiles) != 1 {
		t.Fatalf("expected default excluded files, got %v", cfg.Addon.ExcludeFiles)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "plugin.video.fenlight") {
		t.Fatalf("sample config missing default addon: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Addon.ManifestPath != "addon.xml" {
		t.Fatalf("unexpected sample manifest path %q", cfg.Addon.ManifestPath)
	}

	if runtime.GOOS != "windows" {
		if !strings.Contains(cfg.Paths.StateDir, "kodipack") {
			t.Fatalf("expected state dir to contain kodipack, got %q", cfg.Paths.StateDir)
		}
	}
}

func TestDefaultAddonsDirWithoutAppData(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("platform default asserted for linux only")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("APPDATA", "")

	dir, err := config.DefaultAddonsDir()
	if err != nil {
		t.Fatalf("DefaultAddonsDir: %v", err)
	}
	if dir != filepath.Join(home, ".kodi", "addons") {
		t.Fatalf("unexpected addons dir %q", dir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty addon name", func(c *config.Config) { c.Addon.Name = "" }},
		{"addon name with separator", func(c *config.Config) { c.Addon.Name = "../escape" }},
		{"absolute manifest", func(c *config.Config) { c.Addon.ManifestPath = filepath.Join(string(filepath.Separator), "etc", "addon.xml") }},
		{"manifest outside addon", func(c *config.Config) { c.Addon.ManifestPath = "../addon.xml" }},
		{"exclude with separator", func(c *config.Config) { c.Addon.ExcludeDirs = []string{"a/b"} }},
		{"version file with separator", func(c *config.Config) { c.Publish.VersionFile = "dir/version" }},
		{"colliding sidecars", func(c *config.Config) { c.Publish.ChangesFile = c.Publish.VersionFile }},
		{"unknown log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"output is addon dir", func(c *config.Config) { c.Paths.OutputDir = c.AddonDir() }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected baseline config to validate, got %v", err)
	}
}

func validConfig(t *testing.T) config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Addon.Name = "plugin.video.fenlight"
	cfg.Paths.AddonsDir = filepath.Join(base, "addons")
	cfg.Paths.ProjectDir = base
	cfg.Paths.OutputDir = filepath.Join(base, "packages")
	return cfg
}
