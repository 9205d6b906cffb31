package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"kodipack/internal/config"
	"kodipack/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	home := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("APPDATA", filepath.Join(testsupport.BaseDir(cfg), "appdata"))
	t.Setenv("KODIPACK_ADDON", "")

	configPath := filepath.Join(testsupport.BaseDir(cfg), "kodipack.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
