package preflight

import (
	"fmt"
	"os"
	"path/filepath"
)

// CheckReadableDir verifies that the directory exists and can be listed.
func CheckReadableDir(name, path string) Result {
	if res, ok := statDir(name, path); !ok {
		return res
	}
	if err := access(path, accessRead|accessExec); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if res, ok := statDir(name, path); !ok {
		return res
	}
	if err := access(path, accessRead|accessWrite|accessExec); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckWritableDir is CheckDirectoryAccess for directories a run creates on
// demand: a missing directory passes when its nearest existing ancestor is
// writable.
func CheckWritableDir(name, path string) Result {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	parent := nearestExisting(path)
	if parent == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing parent)", path)}
	}
	if err := access(parent, accessWrite|accessExec); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckFile verifies that path is a readable regular file.
func CheckFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a regular file)", path)}
	}
	if err := access(path, accessRead); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

func statDir(name, path string) (Result, bool) {
	if path == "" {
		return Result{Name: name, Detail: "(error: not configured)"}, false
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}, false
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}, false
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}, false
	}
	return Result{}, true
}

func nearestExisting(path string) string {
	current := filepath.Clean(path)
	for {
		if info, err := os.Stat(current); err == nil {
			if info.IsDir() {
				return current
			}
			return ""
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

func dirOf(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Dir(path)
}
