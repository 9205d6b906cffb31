package preflight

import (
	"errors"
	"fmt"
	"os"

	"kodipack/internal/addon"
	"kodipack/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail"`
}

// RunAll executes every check applicable to cfg, in pipeline order.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	addonsDir := CheckReadableDir("Addons directory", cfg.Paths.AddonsDir)
	addonsDir.Optional = true
	results = append(results, addonsDir)

	addonDir := CheckReadableDir("Addon directory", cfg.AddonDir())
	addonDir.Optional = true
	if !addonDir.Passed {
		addonDir.Detail += "; index pages are rebuilt from the version sidecar"
	}
	results = append(results, addonDir)

	if addonDir.Passed {
		results = append(results, CheckManifest(cfg.ManifestPath()))
		changelog := CheckFile("Changelog", cfg.ChangelogPath())
		changelog.Optional = true
		results = append(results, changelog)
	}

	results = append(results, CheckWritableDir("Project directory", cfg.Paths.ProjectDir))
	results = append(results, CheckWritableDir("Output directory", cfg.Paths.OutputDir))
	if cfg.History.Enabled {
		results = append(results, CheckWritableDir("History directory", dirOf(cfg.History.Path)))
	}

	return results
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}

// CheckManifest verifies that the manifest exists and declares a version on
// its first line.
func CheckManifest(path string) Result {
	const name = "Manifest"

	version, err := addon.ExtractVersion(path)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		case errors.Is(err, addon.ErrVersionNotFound):
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no version attribute on first line)", path)}
		default:
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (version %s)", path, version)}
}
