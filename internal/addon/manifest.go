package addon

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"kodipack/internal/textutil"
)

// ErrVersionNotFound reports a manifest whose first line lacks a version attribute.
var ErrVersionNotFound = errors.New("version number not found in manifest")

var versionPattern = regexp.MustCompile(`version="([\d.]+)"`)

// ExtractVersion reads only the first line of the manifest at path and returns
// the dotted-numeric value of its version attribute.
func ExtractVersion(path string) (string, error) {
	line, err := textutil.FirstLine(path)
	if err != nil {
		return "", fmt.Errorf("read manifest: %w", err)
	}
	version, ok := MatchVersion(line)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrVersionNotFound, path)
	}
	return version, nil
}

// MatchVersion applies the manifest version pattern to a single line.
func MatchVersion(line string) (string, bool) {
	match := versionPattern.FindStringSubmatch(strings.TrimSpace(line))
	if match == nil {
		return "", false
	}
	return match[1], true
}
