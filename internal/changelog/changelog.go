// Package changelog pulls the newest entry out of an addon changelog.
package changelog

import (
	"strings"

	"kodipack/internal/textutil"
)

// ExtractLatest returns the leading paragraph of the changelog at path: every
// line up to the first blank one, each trimmed, joined with "\n". A file that
// opens with a blank line yields "".
func ExtractLatest(path string) (string, error) {
	var lines []string
	err := textutil.EachLine(path, func(line string) bool {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			return false
		}
		lines = append(lines, trimmed)
		return true
	})
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
