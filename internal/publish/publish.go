package publish

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"kodipack/internal/fileutil"
)

const indexHeader = "<!DOCTYPE html>\n"

// PackageName returns the archive file name for an addon release.
func PackageName(addon, version string) string {
	return addon + "-" + version + ".zip"
}

// WriteVersion stores version verbatim in outputDir/fileName with no trailing
// newline.
func WriteVersion(outputDir, fileName, version string) error {
	path := filepath.Join(outputDir, fileName)
	if err := fileutil.WriteFileAtomic(path, []byte(version), 0o644); err != nil {
		return fmt.Errorf("write version file: %w", err)
	}
	return nil
}

// ReadVersion returns the trimmed sidecar contents. A missing sidecar is
// reported as ("", false, nil).
func ReadVersion(outputDir, fileName string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, fileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read version file: %w", err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// WriteChanges stores the latest changelog paragraph verbatim.
func WriteChanges(outputDir, fileName, text string) error {
	path := filepath.Join(outputDir, fileName)
	if err := fileutil.WriteFileAtomic(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write changes file: %w", err)
	}
	return nil
}

// Indexes reports where WriteIndexes put its pages.
type Indexes struct {
	Output string
	Root   string
	// Href is the link target used in the root page.
	Href string
}

// WriteIndexes rewrites outputDir/indexFile and projectDir/indexFile. Both
// pages link packageName; the root page reaches it through the output
// directory's path relative to projectDir. An empty packageName truncates
// both pages to zero bytes.
func WriteIndexes(outputDir, projectDir, indexFile, packageName string) (Indexes, error) {
	idx := Indexes{
		Output: filepath.Join(outputDir, indexFile),
		Root:   filepath.Join(projectDir, indexFile),
	}

	var outputPage, rootPage string
	if packageName != "" {
		href, err := RootHref(outputDir, projectDir, packageName)
		if err != nil {
			return Indexes{}, err
		}
		idx.Href = href
		outputPage = renderIndex(packageName, packageName)
		rootPage = renderIndex(href, packageName)
	}

	if err := fileutil.WriteFileAtomic(idx.Output, []byte(outputPage), 0o644); err != nil {
		return Indexes{}, fmt.Errorf("write package index: %w", err)
	}
	if err := fileutil.WriteFileAtomic(idx.Root, []byte(rootPage), 0o644); err != nil {
		return Indexes{}, fmt.Errorf("write root index: %w", err)
	}
	return idx, nil
}

// RootHref returns the slash-separated link from projectDir to packageName
// inside outputDir.
func RootHref(outputDir, projectDir, packageName string) (string, error) {
	rel, err := filepath.Rel(projectDir, outputDir)
	if err != nil {
		return "", fmt.Errorf("relate output dir to project dir: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return packageName, nil
	}
	return rel + "/" + packageName, nil
}

func renderIndex(href, text string) string {
	var b strings.Builder
	b.WriteString(indexHeader)
	b.WriteString(`<a href="`)
	b.WriteString(href)
	b.WriteString(`">`)
	b.WriteString(text)
	b.WriteString("</a>\n")
	return b.String()
}
