package textutil

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewUTF8Reader wraps r so a leading byte order mark is dropped and UTF-16
// files announced by a BOM are transcoded to UTF-8.
func NewUTF8Reader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// FirstLine returns the first line of the file at path without its line
// terminator. An empty file yields "".
func FirstLine(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	reader := bufio.NewReader(NewUTF8Reader(file))
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// EachLine calls fn for every line of the file at path until fn returns false.
func EachLine(path string, fn func(line string) bool) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(NewUTF8Reader(file))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if !fn(strings.TrimRight(scanner.Text(), "\r")) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
