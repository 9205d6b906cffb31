package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "version")

	if err := os.WriteFile(dst, []byte("old contents that are longer"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(dst, []byte("1.0.0"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "1.0.0" {
		t.Fatalf("content mismatch: got %q", got)
	}
	assertNoTempFiles(t, dir)
}

func TestWriteAtomicFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "pkg.zip")
	if err := os.WriteFile(dst, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := WriteAtomic(dst, 0o644, func(f *os.File) error {
		if _, err := f.Write([]byte("partial")); err != nil {
			t.Fatal(err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fill error, got %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "previous" {
		t.Fatalf("original content should survive, got %q", got)
	}
	assertNoTempFiles(t, dir)
}

func TestWriteAtomicAppliesMode(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "index.html")
	if err := WriteFileAtomic(dst, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Fatalf("expected empty file, got %d bytes", info.Size())
	}
	// CreateTemp uses 0600; the rename must carry the requested read bits.
	if info.Mode().Perm()&0o044 == 0 {
		t.Fatalf("expected group/other read bits, got %o", info.Mode().Perm())
	}
}

func TestSHA256File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	sum, err := SHA256File(path)
	if err != nil {
		t.Fatal(err)
	}
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if sum != want {
		t.Fatalf("digest mismatch: got %s want %s", sum, want)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Fatalf("temporary files left behind: %v", matches)
	}
}
