package packager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"kodipack/internal/addon"
	"kodipack/internal/archive"
	"kodipack/internal/changelog"
	"kodipack/internal/config"
	"kodipack/internal/history"
	"kodipack/internal/logging"
	"kodipack/internal/publish"
)

// LockFileName is created in the output directory while a run is active.
const LockFileName = ".kodipack.lock"

// ErrLocked reports that another run holds the output directory lock.
var ErrLocked = errors.New("another packaging run is in progress")

// Options tunes a single run.
type Options struct {
	// DryRun resolves every input and reports what would be written without
	// touching the filesystem.
	DryRun bool
}

// Outcome summarizes a run.
type Outcome struct {
	RunID  string `json:"run_id"`
	Addon  string `json:"addon"`
	DryRun bool   `json:"dry_run,omitempty"`
	// Built is true when a new archive was produced from the installed addon.
	Built          bool            `json:"built"`
	Version        string          `json:"version,omitempty"`
	Package        string          `json:"package,omitempty"`
	ArchivePath    string          `json:"archive_path,omitempty"`
	Entries        int             `json:"entries,omitempty"`
	Size           int64           `json:"size,omitempty"`
	SHA256         string          `json:"sha256,omitempty"`
	Changes        string          `json:"changes,omitempty"`
	ChangesWritten bool            `json:"changes_written"`
	Indexes        publish.Indexes `json:"indexes"`
	Recorded       bool            `json:"recorded"`
	Duration       time.Duration   `json:"duration"`
}

// Run executes the packaging pipeline for cfg.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil {
		return Outcome{}, errors.New("config is required")
	}

	start := time.Now()
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	r := &run{
		cfg:    cfg,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "packager").With(logging.String(logging.FieldAddon, cfg.Addon.Name)),
		out:    Outcome{RunID: runID, Addon: cfg.Addon.Name, DryRun: opts.DryRun},
	}

	if !opts.DryRun {
		if err := cfg.EnsureDirectories(); err != nil {
			return r.out, fmt.Errorf("prepare directories: %w", err)
		}
		lock := flock.New(filepath.Join(cfg.Paths.OutputDir, LockFileName))
		ok, err := lock.TryLock()
		if err != nil {
			return r.out, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return r.out, fmt.Errorf("%w (lock %s)", ErrLocked, lock.Path())
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				r.logger.Warn("failed to release run lock", logging.Error(err))
			}
		}()
	}

	if err := r.execute(ctx); err != nil {
		r.logFailure(ctx, err)
		return r.out, err
	}

	r.out.Duration = time.Since(start)
	r.recordHistory(ctx)
	logging.WithContext(ctx, r.logger).Info("packaging run complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Bool("built", r.out.Built),
		logging.String("package", r.out.Package),
		logging.Bool("dry_run", opts.DryRun),
		logging.Duration("duration", r.out.Duration),
	)
	return r.out, nil
}

type run struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger
	out    Outcome
}

func (r *run) execute(ctx context.Context) error {
	locateCtx := logging.WithStep(ctx, "locate")
	loc, err := addon.Locate(r.cfg.Paths.AddonsDir, r.cfg.Addon.Name)
	if err != nil {
		return err
	}
	logging.WithContext(locateCtx, r.logger).Info("addon located",
		logging.String("dir", loc.Dir),
		logging.Bool("installed", loc.Exists),
	)

	latest := ""
	if loc.Exists {
		if err := r.build(ctx, loc); err != nil {
			return err
		}
		latest = r.out.Package
	} else {
		if latest, err = r.fromSidecar(ctx); err != nil {
			return err
		}
	}

	return r.publishIndexes(ctx, latest)
}

func (r *run) build(ctx context.Context, loc addon.Location) error {
	versionCtx := logging.WithStep(ctx, "version")
	version, err := addon.ExtractVersion(r.cfg.ManifestPath())
	if err != nil {
		return err
	}
	r.out.Version = version
	r.out.Package = publish.PackageName(loc.Name, version)
	r.out.ArchivePath = filepath.Join(r.cfg.Paths.OutputDir, r.out.Package)
	logging.WithContext(versionCtx, r.logger).Info("manifest version read",
		logging.String("version", version),
		logging.String("manifest", r.cfg.ManifestPath()),
	)

	if r.opts.DryRun {
		logging.WithContext(logging.WithStep(ctx, "archive"), r.logger).Info("dry run: archive not written",
			logging.String("path", r.out.ArchivePath),
		)
	} else {
		archiveCtx := logging.WithStep(ctx, "archive")
		archiveLogger := logging.WithContext(archiveCtx, r.logger)
		result, err := archive.Create(archiveCtx, archive.Options{
			Root:         loc.Dir,
			Output:       r.out.ArchivePath,
			Prefix:       loc.Name,
			ExcludeDirs:  r.cfg.Addon.ExcludeDirs,
			ExcludeFiles: r.cfg.Addon.ExcludeFiles,
			Logger:       archiveLogger,
		})
		if err != nil {
			return err
		}
		r.out.Built = true
		r.out.Entries = result.Entries
		r.out.Size = result.Size
		r.out.SHA256 = result.SHA256
		archiveLogger.Info("zip file created",
			logging.String("path", result.Path),
			logging.Int("entries", result.Entries),
			logging.Int64("size_bytes", result.Size),
			logging.String("sha256", result.SHA256),
		)

		if err := publish.WriteVersion(r.cfg.Paths.OutputDir, r.cfg.Publish.VersionFile, version); err != nil {
			return err
		}
	}

	return r.copyChanges(ctx)
}

func (r *run) copyChanges(ctx context.Context) error {
	changesLogger := logging.WithContext(logging.WithStep(ctx, "changes"), r.logger)
	path := r.cfg.ChangelogPath()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			changesLogger.Info("no changelog; changes file left untouched", logging.String("changelog", path))
			return nil
		}
		return fmt.Errorf("stat changelog: %w", err)
	}

	changes, err := changelog.ExtractLatest(path)
	if err != nil {
		return fmt.Errorf("read changelog: %w", err)
	}
	r.out.Changes = changes
	if changes == "" {
		logging.WarnWithContext(ctx, changesLogger, "changelog starts with a blank line", "changelog_empty",
			logging.String("changelog", path),
			logging.String(logging.FieldErrorHint, "put the newest entry at the top of the changelog"),
			logging.String(logging.FieldImpact, "changes file will be empty"),
		)
	}
	if r.opts.DryRun {
		return nil
	}
	if err := publish.WriteChanges(r.cfg.Paths.OutputDir, r.cfg.Publish.ChangesFile, changes); err != nil {
		return err
	}
	r.out.ChangesWritten = true
	changesLogger.Info("changes file updated", logging.Int("bytes", len(changes)))
	return nil
}

func (r *run) fromSidecar(ctx context.Context) (string, error) {
	sidecarLogger := logging.WithContext(logging.WithStep(ctx, "sidecar"), r.logger)
	version, ok, err := publish.ReadVersion(r.cfg.Paths.OutputDir, r.cfg.Publish.VersionFile)
	if err != nil {
		return "", err
	}
	if !ok {
		logging.WarnWithContext(ctx, sidecarLogger, "addon not installed and no version sidecar", "sidecar_missing",
			logging.String("addon_dir", r.cfg.AddonDir()),
			logging.String(logging.FieldErrorHint, "install the addon or restore the version file"),
			logging.String(logging.FieldImpact, "index pages will be empty"),
		)
		return "", nil
	}
	r.out.Version = version
	r.out.Package = publish.PackageName(r.cfg.Addon.Name, version)
	sidecarLogger.Info("republishing from version sidecar",
		logging.String("version", version),
		logging.String("package", r.out.Package),
	)
	return r.out.Package, nil
}

func (r *run) publishIndexes(ctx context.Context, latest string) error {
	indexLogger := logging.WithContext(logging.WithStep(ctx, "index"), r.logger)
	if r.opts.DryRun {
		r.out.Indexes = publish.Indexes{
			Output: filepath.Join(r.cfg.Paths.OutputDir, r.cfg.Publish.IndexFile),
			Root:   filepath.Join(r.cfg.Paths.ProjectDir, r.cfg.Publish.IndexFile),
		}
		if latest != "" {
			href, err := publish.RootHref(r.cfg.Paths.OutputDir, r.cfg.Paths.ProjectDir, latest)
			if err != nil {
				return err
			}
			r.out.Indexes.Href = href
		}
		indexLogger.Info("dry run: index pages not written", logging.String("package", latest))
		return nil
	}

	idx, err := publish.WriteIndexes(r.cfg.Paths.OutputDir, r.cfg.Paths.ProjectDir, r.cfg.Publish.IndexFile, latest)
	if err != nil {
		return err
	}
	r.out.Indexes = idx
	indexLogger.Info("index pages updated",
		logging.String("package", latest),
		logging.String("output_index", idx.Output),
		logging.String("root_index", idx.Root),
	)
	return nil
}

func (r *run) recordHistory(ctx context.Context) {
	if r.opts.DryRun || !r.cfg.History.Enabled {
		return
	}
	historyLogger := logging.WithContext(logging.WithStep(ctx, "history"), r.logger)
	store, err := history.Open(r.cfg.History.Path)
	if err != nil {
		logging.WarnWithContext(ctx, historyLogger, "build history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run not recorded in history"),
		)
		return
	}
	defer store.Close()

	build := &history.Build{
		RunID:       r.out.RunID,
		Addon:       r.out.Addon,
		Version:     r.out.Version,
		Package:     r.out.Package,
		ArchivePath: r.out.ArchivePath,
		Entries:     r.out.Entries,
		SizeBytes:   r.out.Size,
		SHA256:      r.out.SHA256,
		Built:       r.out.Built,
	}
	if !r.out.Built {
		build.ArchivePath = ""
	}
	if err := store.Record(ctx, build); err != nil {
		logging.WarnWithContext(ctx, historyLogger, "failed to record build", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run not recorded in history"),
		)
		return
	}
	r.out.Recorded = true
	historyLogger.Debug("build recorded", logging.Int64("history_id", build.ID))
}

func (r *run) logFailure(ctx context.Context, err error) {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "run_failed"),
		logging.Error(err),
	}
	if errors.Is(err, addon.ErrVersionNotFound) {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, "the first line of the manifest must carry version=\"x.y.z\""))
	}
	logging.WithContext(ctx, r.logger).Error("packaging run failed", logging.Args(attrs...)...)
}
