package addon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Location describes where an addon is (or would be) installed.
type Location struct {
	Name   string
	Dir    string
	Exists bool
}

// Locate resolves name under addonsDir. A missing directory is reported via
// Exists=false rather than an error; a non-directory at that path is an error.
func Locate(addonsDir, name string) (Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Location{}, errors.New("addon name is required")
	}
	dir := filepath.Join(addonsDir, name)
	loc := Location{Name: name, Dir: dir}

	info, err := os.Stat(dir)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		return loc, nil
	default:
		return Location{}, fmt.Errorf("stat addon directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return Location{}, fmt.Errorf("addon path %q is not a directory", dir)
	}
	loc.Exists = true
	return loc, nil
}
