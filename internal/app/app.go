package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"photopull/internal/catalog"
	"photopull/internal/config"
	"photopull/internal/metadata"
	"photopull/internal/pull"
	"photopull/internal/source"
)

// App is the application layer between the CLI and the pull pipeline.
// It constructs all dependencies from config, exposes high-level
// operations, and manages the catalog lifecycle on Close.
type App struct {
	cfg     *config.Config
	source  pull.AssetSource
	catalog *catalog.SQLiteCatalog
	logger  pull.Logger
	logFile *os.File
	clock   pull.Clock
	idgen   pull.IDGenerator
}

// DownloadOptions carries per-invocation overrides of the config.
type DownloadOptions struct {
	Mode       string // "" uses the configured organization mode
	OutputRoot string // "" uses the configured output root
	Workers    int    // <= 0 uses the configured worker count
	Personal   bool
	Shared     bool
	Albums     bool
}

// NewApp creates a fully wired App from the given config. The caller
// must call Close when done.
func NewApp(cfg *config.Config, runID string) (*App, error) {
	src, err := source.NewSourceFromConfig(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("creating source: %w", err)
	}

	cat, err := catalog.NewCatalogFromConfig(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("creating catalog: %w", err)
	}

	logger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		cat.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &App{
		cfg:     cfg,
		source:  src,
		catalog: cat,
		logger:  &slogAdapter{l: logger},
		logFile: logFile,
		clock:   pull.RealClock{},
		idgen:   pull.UUIDGenerator{},
	}, nil
}

// Source exposes the configured source, for tests that seed it.
func (a *App) Source() pull.AssetSource { return a.source }

// Download runs one full pull session into a fresh timestamped run
// directory under the output root.
func (a *App) Download(ctx context.Context, opts DownloadOptions) (*pull.RunSummary, error) {
	mode := a.cfg.Organization
	if opts.Mode != "" {
		mode = opts.Mode
	}
	orgMode, err := pull.ParseOrgMode(mode)
	if err != nil {
		return nil, err
	}

	outputRoot := a.cfg.OutputRoot
	if opts.OutputRoot != "" {
		outputRoot = opts.OutputRoot
	}
	if outputRoot == "" {
		return nil, fmt.Errorf("no output root configured")
	}

	workers := a.cfg.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	if a.cfg.MinFreeGB > 0 {
		if free, err := freeDiskGB(outputRoot); err == nil && free < float64(a.cfg.MinFreeGB) {
			a.logger.Warn("low disk space", "free_gb", fmt.Sprintf("%.1f", free), "min_gb", a.cfg.MinFreeGB)
		}
	}

	runID := a.idgen.New()
	started := a.clock.Now()
	runDir := filepath.Join(outputRoot, "download_"+started.Format("20060102_150405"))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}

	progress, err := pull.NewProgressLog(runDir, os.Stdout, a.clock)
	if err != nil {
		return nil, err
	}
	defer progress.Close()

	stager, err := pull.NewContentStager(a.source, filepath.Join(runDir, ".staging"), a.idgen)
	if err != nil {
		return nil, err
	}

	sections, err := a.selectSections(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := a.catalog.BeginRun(runID, started, mode); err != nil {
		return nil, err
	}

	committer := pull.NewCommitter()
	planner := pull.NewPathPlanner(runDir, orgMode)
	writer := metadata.NewWriter()

	runner := pull.NewRunner(pull.RunnerConfig{
		Source:        a.source,
		Stager:        stager,
		Dedup:         pull.NewDeduplicator(),
		Planner:       planner,
		Committer:     committer,
		LivePhotos:    pull.NewLivePhotoHandler(stager, planner, committer, writer),
		Metadata:      writer,
		CaptureProber: writer,
		Recorder:      &catalogRecorder{catalog: a.catalog, runID: runID, clock: a.clock},
		Stats:         pull.NewStats(),
		Progress:      progress,
		Logger:        a.logger,
		Mode:          orgMode,
		Workers:       workers,
	})

	summary, runErr := runner.Run(ctx, sections)

	if err := a.catalog.FinishRun(runID, a.clock.Now(), summary.Committed, summary.Skipped, summary.Failed); err != nil {
		a.logger.Error("finishing run record", "error", err)
	}
	return summary, runErr
}

// selectSections asks the source for its sections and filters them by
// the configured (or overridden) section toggles.
func (a *App) selectSections(ctx context.Context, opts DownloadOptions) ([]pull.Section, error) {
	want := a.cfg.Sections
	if opts.Personal || opts.Shared || opts.Albums {
		want = config.SectionsConfig{Personal: opts.Personal, Shared: opts.Shared, Albums: opts.Albums}
	}

	all, err := a.source.Sections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sections: %w", err)
	}

	var selected []pull.Section
	for _, s := range all {
		switch s.Kind {
		case pull.SectionPersonal:
			if want.Personal {
				selected = append(selected, s)
			}
		case pull.SectionSharedWithMe:
			if want.Shared {
				selected = append(selected, s)
			}
		case pull.SectionSharedAlbum:
			if want.Albums {
				selected = append(selected, s)
			}
		}
	}
	return selected, nil
}

// Count enumerates every selected section without fetching content and
// returns per-section asset counts.
func (a *App) Count(ctx context.Context) (map[string]int, error) {
	sections, err := a.selectSections(ctx, DownloadOptions{})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(sections))
	for _, section := range sections {
		assets, errCh := a.source.Enumerate(ctx, section)
		n := 0
		for range assets {
			n++
		}
		if err := <-errCh; err != nil {
			return nil, fmt.Errorf("counting %s: %w", section, err)
		}
		counts[section.String()] = n
	}
	return counts, nil
}

// History returns the most recent recorded runs.
func (a *App) History(limit int) ([]catalog.Run, error) {
	return a.catalog.ListRuns(limit)
}

// Close releases the catalog and log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.catalog.Close(); err != nil {
		firstErr = err
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// catalogRecorder adapts the catalog to the pull.CommitRecorder seam.
type catalogRecorder struct {
	catalog *catalog.SQLiteCatalog
	runID   string
	clock   pull.Clock
}

func (r *catalogRecorder) RecordCommit(asset pull.Asset, path string, hash string, size int64) error {
	return r.catalog.RecordFile(catalog.File{
		RunID:       r.runID,
		AssetID:     asset.Identity(),
		Path:        path,
		SHA256:      hash,
		SizeBytes:   size,
		CommittedAt: r.clock.Now(),
	})
}
