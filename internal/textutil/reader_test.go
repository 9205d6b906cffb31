package textutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFirstLineStripsBOMAndCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addon.xml")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBF<addon version=\"1.2.3\">\r\n<rest/>\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FirstLine(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != `<addon version="1.2.3">` {
		t.Fatalf("unexpected first line %q", got)
	}
}

func TestFirstLineEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := FirstLine(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Fatalf("expected empty line, got %q", got)
	}
}

func TestFirstLineMissingFile(t *testing.T) {
	if _, err := FirstLine(filepath.Join(t.TempDir(), "nope")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestEachLineStopsEarly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "changelog.txt")
	if err := os.WriteFile(path, []byte("a\r\nb\nc\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var seen []string
	err := EachLine(path, func(line string) bool {
		seen = append(seen, line)
		return line != "b"
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("unexpected lines %q", seen)
	}
}
