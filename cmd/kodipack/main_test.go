package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kodipack/internal/addon"
	"kodipack/internal/archive"
	"kodipack/internal/history"
	"kodipack/internal/packager"
	"kodipack/internal/testsupport"
)

func TestBuildCommandPackagesAddon(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHistory(), testsupport.WithInstalledAddon("2.0.0", map[string]string{
		"resources/text/changelog.txt": "Fix bug\nAdd feature\n\nOlder\n",
	}))

	out, stderr, err := runCLI(t, []string{"build"}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v (stderr %s)", err, stderr)
	}
	pkg := testsupport.DefaultAddon + "-2.0.0.zip"
	requireContains(t, out, "== Build ==")
	requireContains(t, out, filepath.Join(env.cfg.Paths.OutputDir, pkg))
	requireContains(t, out, "[OK] Fix bug ...")
	requireContains(t, out, "packages/"+pkg)
	requireContains(t, stderr, "zip file created")

	if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, pkg)); err != nil {
		t.Fatalf("expected package: %v", err)
	}
	if got := testsupport.ReadFile(t, filepath.Join(env.cfg.Paths.ProjectDir, "index.html")); got != "<!DOCTYPE html>\n<a href=\"packages/"+pkg+"\">"+pkg+"</a>\n" {
		t.Fatalf("root index %q", got)
	}
}

func TestRootCommandRunsBuild(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithInstalledAddon("1.0.0", nil))

	if _, stderr, err := runCLI(t, nil, env.configPath); err != nil {
		t.Fatalf("kodipack: %v (stderr %s)", err, stderr)
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, testsupport.DefaultAddon+"-1.0.0.zip")); err != nil {
		t.Fatalf("expected package from bare invocation: %v", err)
	}
}

func TestBuildDryRunJSON(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithInstalledAddon("2.0.0", nil))

	out, _, err := runCLI(t, []string{"build", "--dry-run", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("build --dry-run: %v", err)
	}
	var outcome packager.Outcome
	if err := json.Unmarshal([]byte(out), &outcome); err != nil {
		t.Fatalf("decode outcome: %v (%s)", err, out)
	}
	if !outcome.DryRun || outcome.Built || outcome.Package != testsupport.DefaultAddon+"-2.0.0.zip" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if _, err := os.Stat(env.cfg.Paths.OutputDir); !os.IsNotExist(err) {
		t.Fatal("dry run created the output directory")
	}
}

func TestBuildFailsWithoutVersion(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteText(t, env.cfg.ManifestPath(), "<addon id=\"x\">\n")

	_, _, err := runCLI(t, []string{"build"}, env.configPath)
	if !errors.Is(err, addon.ErrVersionNotFound) {
		t.Fatalf("expected ErrVersionNotFound, got %v", err)
	}
}

func TestBuildAddonFlagOverridesConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteTree(t, filepath.Join(env.cfg.Paths.AddonsDir, "script.module.other"), map[string]string{
		"addon.xml": testsupport.Manifest("script.module.other", "0.2.0"),
	})

	out, _, err := runCLI(t, []string{"build", "--addon", "script.module.other"}, env.configPath)
	if err != nil {
		t.Fatalf("build --addon: %v", err)
	}
	requireContains(t, out, "script.module.other-0.2.0.zip")
	names, err := archive.List(filepath.Join(env.cfg.Paths.OutputDir, "script.module.other-0.2.0.zip"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 || names[0] != "script.module.other/addon.xml" {
		t.Fatalf("unexpected entries %v", names)
	}
}

func TestBuildRejectsInvalidAddonFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"build", "--addon", "../escape"}, env.configPath); err == nil {
		t.Fatal("expected error for addon name with separator")
	}
}

func TestBuildRepublishWithoutAddon(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteText(t, filepath.Join(env.cfg.Paths.OutputDir, env.cfg.Publish.VersionFile), "1.4.2")

	out, _, err := runCLI(t, []string{"build"}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	requireContains(t, out, "[WARN] addon not installed; republishing "+testsupport.DefaultAddon+"-1.4.2.zip")
}

func TestStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHistory(), testsupport.WithInstalledAddon("2.0.0", nil))
	if _, _, err := runCLI(t, []string{"build"}, env.configPath); err != nil {
		t.Fatalf("build: %v", err)
	}

	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status: %v (%s)", err, out)
	}
	if !report.Ready || !report.ConfigFound || report.ConfigPath != env.configPath {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Version != "2.0.0" || !report.PackagePresent || report.Href != "packages/"+testsupport.DefaultAddon+"-2.0.0.zip" {
		t.Fatalf("unexpected published state %+v", report)
	}
	if report.LastBuild == nil || !report.LastBuild.Built {
		t.Fatalf("expected last build from history, got %+v", report.LastBuild)
	}
}

func TestStatusTextWithoutAddon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Configuration ==")
	requireContains(t, out, "Addon directory")
	requireContains(t, out, "WARN")
	requireContains(t, out, "[WARN] no version recorded")
	if _, err := os.Stat(env.cfg.Paths.OutputDir); !os.IsNotExist(err) {
		t.Fatal("status must not create the output directory")
	}
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHistory(), testsupport.WithInstalledAddon("2.0.0", nil))

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history on empty ledger: %v", err)
	}
	requireContains(t, out, "No builds recorded")

	for range 2 {
		if _, _, err := runCLI(t, []string{"build"}, env.configPath); err != nil {
			t.Fatalf("build: %v", err)
		}
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "2 runs")
	requireContains(t, out, testsupport.DefaultAddon+"-2.0.0.zip")

	out, _, err = runCLI(t, []string{"history", "--json", "--limit", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var builds []history.Build
	if err := json.Unmarshal([]byte(out), &builds); err != nil {
		t.Fatalf("decode history: %v (%s)", err, out)
	}
	if len(builds) != 1 || builds[0].Version != "2.0.0" {
		t.Fatalf("unexpected history %+v", builds)
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"history"}, env.configPath); err == nil {
		t.Fatal("expected error when history is disabled")
	}
}

func TestInspectCommand(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithInstalledAddon("2.0.0", map[string]string{"lib/a.py": "print(1)\n"}))
	if _, _, err := runCLI(t, []string{"build"}, env.configPath); err != nil {
		t.Fatalf("build: %v", err)
	}
	zipPath := filepath.Join(env.cfg.Paths.OutputDir, testsupport.DefaultAddon+"-2.0.0.zip")

	out, _, err := runCLI(t, []string{"inspect", zipPath}, "")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, testsupport.DefaultAddon+"/lib/a.py")
	requireContains(t, out, "2 files")
	requireContains(t, out, "deflate")

	if _, _, err := runCLI(t, []string{"inspect", filepath.Join(t.TempDir(), "missing.zip")}, ""); err == nil {
		t.Fatal("expected error for missing archive")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Addon: "+testsupport.DefaultAddon)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestLogFormatFlag(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithInstalledAddon("2.0.0", nil))

	_, stderr, err := runCLI(t, []string{"build", "--log-format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	requireContains(t, stderr, `"msg":"zip file created"`)
	requireContains(t, stderr, `"run_id":`)

	if _, _, err := runCLI(t, []string{"build", "--log-level", "chatty"}, env.configPath); err == nil {
		t.Fatal("expected invalid log level to be rejected")
	}
}
