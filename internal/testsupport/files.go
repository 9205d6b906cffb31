package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteSized fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteSized(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteText writes contents to path, creating parent directories.
func WriteText(t testing.TB, path, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteTree creates files under root from a map of slash-separated relative
// paths to contents. A key ending in "/" creates an empty directory.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()

	for rel, contents := range files {
		target := filepath.Join(root, filepath.FromSlash(rel))
		if len(rel) > 0 && rel[len(rel)-1] == '/' {
			if err := os.MkdirAll(target, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", target, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", target, err)
		}
		if err := os.WriteFile(target, []byte(contents), 0o644); err != nil {
			t.Fatalf("write %s: %v", target, err)
		}
	}
}

// ReadFile returns the contents of path or fails the test.
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
