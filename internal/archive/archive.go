package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"

	"kodipack/internal/fileutil"
	"kodipack/internal/logging"
)

// Options configures a single archive build.
type Options struct {
	// Root is the directory whose contents are packaged.
	Root string
	// Output is the destination zip path; its directory is created if needed.
	Output string
	// Prefix is the top-level folder every entry is placed under.
	Prefix       string
	ExcludeDirs  []string
	ExcludeFiles []string
	Logger       *slog.Logger
}

// Result summarizes a written archive.
type Result struct {
	Path    string
	Entries int
	Size    int64
	SHA256  string
}

// Create writes a fresh archive of opts.Root to opts.Output, replacing any
// existing file. The archive is assembled in a temporary file beside the
// destination and renamed into place, so a failed build leaves no partial zip.
func Create(ctx context.Context, opts Options) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(opts.Root) == "" {
		return Result{}, errors.New("archive root is required")
	}
	if strings.TrimSpace(opts.Output) == "" {
		return Result{}, errors.New("archive output path is required")
	}
	prefix := strings.Trim(filepath.ToSlash(strings.TrimSpace(opts.Prefix)), "/")
	if prefix == "" {
		return Result{}, errors.New("archive prefix is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return Result{}, fmt.Errorf("resolve archive root: %w", err)
	}
	// Development installs are often symlinked into the addons directory.
	if root, err = filepath.EvalSymlinks(root); err != nil {
		return Result{}, fmt.Errorf("resolve archive root: %w", err)
	}
	output, err := filepath.Abs(opts.Output)
	if err != nil {
		return Result{}, fmt.Errorf("resolve archive output: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}

	var entries int
	err = fileutil.WriteAtomic(output, 0o644, func(tmp *os.File) error {
		zw := zip.NewWriter(tmp)
		zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, flate.DefaultCompression)
		})
		walker := &walker{
			ctx:          ctx,
			root:         root,
			skip:         map[string]struct{}{output: {}, tmp.Name(): {}},
			prefix:       prefix,
			excludeDirs:  nameSet(opts.ExcludeDirs),
			excludeFiles: nameSet(opts.ExcludeFiles),
			zw:           zw,
			logger:       logger,
		}
		if err := filepath.WalkDir(root, walker.visit); err != nil {
			_ = zw.Close()
			return err
		}
		entries = walker.entries
		return zw.Close()
	})
	if err != nil {
		return Result{}, fmt.Errorf("archive %s: %w", root, err)
	}

	info, err := os.Stat(output)
	if err != nil {
		return Result{}, fmt.Errorf("stat archive: %w", err)
	}
	sum, err := fileutil.SHA256File(output)
	if err != nil {
		return Result{}, fmt.Errorf("hash archive: %w", err)
	}

	return Result{
		Path:    output,
		Entries: entries,
		Size:    info.Size(),
		SHA256:  sum,
	}, nil
}

type walker struct {
	ctx          context.Context
	root         string
	skip         map[string]struct{}
	prefix       string
	excludeDirs  map[string]struct{}
	excludeFiles map[string]struct{}
	zw           *zip.Writer
	logger       *slog.Logger
	entries      int
}

func (w *walker) visit(p string, d fs.DirEntry, walkErr error) error {
	if walkErr != nil {
		return walkErr
	}
	if err := w.ctx.Err(); err != nil {
		return err
	}

	name := d.Name()
	if d.IsDir() {
		if p == w.root {
			return nil
		}
		if _, skip := w.excludeDirs[name]; skip {
			w.logger.Debug("pruned excluded directory", logging.String("path", p))
			return filepath.SkipDir
		}
		return nil
	}
	if _, skip := w.excludeFiles[name]; skip {
		w.logger.Debug("skipped excluded file", logging.String("path", p))
		return nil
	}
	if _, own := w.skip[p]; own {
		return nil
	}

	// Stat follows symlinks: linked files are archived by content and linked
	// directories are left alone, matching a walk that does not follow links.
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("stat %s: %w", p, err)
	}
	if !info.Mode().IsRegular() {
		w.logger.Debug("skipped non-regular file", logging.String("path", p), logging.String("mode", info.Mode().String()))
		return nil
	}

	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return fmt.Errorf("relative path for %s: %w", p, err)
	}
	return w.add(p, path.Join(w.prefix, filepath.ToSlash(rel)), info)
}

func (w *walker) add(src, entryName string, info fs.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header for %s: %w", src, err)
	}
	header.Name = entryName
	header.Method = zip.Deflate

	dst, err := w.zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", entryName, err)
	}

	file, err := os.Open(src)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return fmt.Errorf("write entry %s: %w", entryName, err)
	}
	w.entries++
	return nil
}

// Entry describes one stored file.
type Entry struct {
	Name           string    `json:"name"`
	Size           uint64    `json:"size"`
	CompressedSize uint64    `json:"compressed_size"`
	Method         string    `json:"method"`
	Modified       time.Time `json:"modified"`
}

// Entries returns the stored files of the archive, in archive order.
func Entries(archivePath string) ([]Entry, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	entries := make([]Entry, 0, len(reader.File))
	for _, file := range reader.File {
		entries = append(entries, Entry{
			Name:           file.Name,
			Size:           file.UncompressedSize64,
			CompressedSize: file.CompressedSize64,
			Method:         methodName(file.Method),
			Modified:       file.Modified,
		})
	}
	return entries, nil
}

// List returns the entry names stored in the archive, in archive order.
func List(archivePath string) ([]string, error) {
	entries, err := Entries(archivePath)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return names, nil
}

func methodName(method uint16) string {
	switch method {
	case zip.Store:
		return "store"
	case zip.Deflate:
		return "deflate"
	default:
		return fmt.Sprintf("method-%d", method)
	}
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return set
}
