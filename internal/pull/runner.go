package pull

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Outcome is the typed result of processing one asset.
type Outcome int

const (
	OutcomeCommitted Outcome = iota
	OutcomeRejected
	OutcomeFailed
)

// assetResult carries one asset's outcome from a worker to the
// collecting loop, which owns stats and log mutation.
type assetResult struct {
	asset     Asset
	outcome   Outcome
	path      string
	hash      string
	size      int64
	videoPath string
	videoErr  error
	metaErr   error
	err       error
}

// RunSummary aggregates run-wide counts.
type RunSummary struct {
	Committed      int64
	Skipped        int64
	Failed         int64
	LiveVideos     int64
	SectionsFailed int64
}

func (s *RunSummary) String() string {
	return fmt.Sprintf("committed=%d skipped=%d failed=%d live_videos=%d",
		s.Committed, s.Skipped, s.Failed, s.LiveVideos)
}

// RunnerConfig wires the pipeline components together. Source, Stager,
// Dedup, Planner, Committer, Stats and Progress are required; the rest
// are optional.
type RunnerConfig struct {
	Source        AssetSource
	Stager        *ContentStager
	Dedup         *Deduplicator
	Planner       *PathPlanner
	Committer     *Committer
	LivePhotos    *LivePhotoHandler
	Metadata      MetadataWriter
	CaptureProber CaptureTimeProber
	Recorder      CommitRecorder
	Stats         *Stats
	Progress      *ProgressLog
	Logger        Logger
	Mode          OrgMode
	Workers       int
	Heartbeat     int
}

const (
	defaultWorkers   = 4
	defaultHeartbeat = 100
)

// Runner drives the full pipeline for every asset in every selected
// section: stage, dedup-check, plan, commit, metadata, live-photo
// companion, stats and progress log. Per-asset work runs on a bounded
// worker pool; per-asset failures never abort the run.
type Runner struct {
	cfg RunnerConfig
}

func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = NewNopLogger()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = defaultHeartbeat
	}
	return &Runner{cfg: cfg}
}

// Run processes the given sections in order. Cancellation stops
// enumeration and lets in-flight assets finish or abort cleanly; the
// stats and log summaries are flushed either way.
func (r *Runner) Run(ctx context.Context, sections []Section) (*RunSummary, error) {
	summary := &RunSummary{}
	log := r.cfg.Progress

	log.Entry(LevelInfo, "Starting download session")
	log.Entry(LevelInfo, "Organization mode: %s", r.cfg.Mode)
	log.Entry(LevelInfo, "Worker pool size: %d", r.cfg.Workers)

	for _, section := range sections {
		if ctx.Err() != nil {
			break
		}
		r.runSection(ctx, section, summary)
	}

	r.writeSummary(summary)
	return summary, ctx.Err()
}

// runSection enumerates one section through the worker pool. A section
// whose enumeration fails is logged once and skipped; the run goes on.
func (r *Runner) runSection(ctx context.Context, section Section, summary *RunSummary) {
	log := r.cfg.Progress
	log.Rule()
	log.Entry(LevelInfo, "Starting %s download", section)

	assets, errCh := r.cfg.Source.Enumerate(ctx, section)

	results := make(chan assetResult)
	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range assets {
				if ctx.Err() != nil {
					continue // drain; producer is shutting down
				}
				results <- r.processAsset(ctx, a)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	processed := 0
	for res := range results {
		processed++
		r.recordResult(res, summary)
		if processed%r.cfg.Heartbeat == 0 {
			log.Entry(LevelInfo, "Progress update: %d processed, %d committed, %d errors",
				processed, summary.Committed, summary.Failed)
		}
	}

	if err := <-errCh; err != nil {
		summary.SectionsFailed++
		terr := &TransportError{Section: section, Err: err}
		log.Entry(LevelError, "Error enumerating %s: %v", section, err)
		r.cfg.Logger.Error("section enumeration failed", "section", section.String(), "error", terr)
	}

	log.Entry(LevelInfo, "%s complete: %d processed, committed=%d, skipped=%d, failed=%d",
		section, processed, summary.Committed, summary.Skipped, summary.Failed)
}

// processAsset is one worker's unit of work. Everything it touches is
// private to the worker except the deduplicator and planner, which
// serialize internally.
func (r *Runner) processAsset(ctx context.Context, a Asset) assetResult {
	staged, err := r.cfg.Stager.Stage(ctx, a, VariantOriginal)
	if err != nil {
		return assetResult{asset: a, outcome: OutcomeFailed, err: err}
	}

	// Recover a capture time from the staged bytes when the source
	// reported none. Deterministic per content, so cross-section
	// occurrences derive the same key and path.
	if a.Created.IsZero() && r.cfg.CaptureProber != nil {
		if t, perr := r.cfg.CaptureProber.CaptureTime(staged.TempPath); perr == nil && !t.IsZero() {
			a.Created = t
		}
	}

	if !r.cfg.Dedup.Admit(NewDedupKey(a, staged)) {
		staged.Discard()
		return assetResult{asset: a, outcome: OutcomeRejected}
	}

	dest, err := r.cfg.Planner.Plan(a)
	if err != nil {
		staged.Discard()
		return assetResult{asset: a, outcome: OutcomeFailed, err: err}
	}

	path, err := r.cfg.Committer.Commit(staged, dest)
	if err != nil {
		// The dedup key stays consumed: re-encountering this asset
		// within the run must not retry a known-bad commit.
		staged.Discard()
		return assetResult{asset: a, outcome: OutcomeFailed, err: err}
	}

	res := assetResult{asset: a, outcome: OutcomeCommitted, path: path, hash: staged.Hash, size: staged.Size}
	res.metaErr = r.applyMetadata(a, path)
	if r.cfg.LivePhotos != nil {
		res.videoPath, res.videoErr = r.cfg.LivePhotos.Handle(ctx, a, path)
	}
	return res
}

func (r *Runner) applyMetadata(a Asset, path string) error {
	if r.cfg.Metadata == nil {
		return nil
	}
	if !a.Created.IsZero() {
		if err := r.cfg.Metadata.SetFileTimes(path, a.Created); err != nil {
			return &MetadataError{Path: path, Err: err}
		}
	}
	if err := r.cfg.Metadata.EmbedTags(path, a.Created, a.Location); err != nil {
		return &MetadataError{Path: path, Err: err}
	}
	return nil
}

// recordResult runs on the single collecting goroutine per section and
// performs all stats/log/catalog mutation for one asset: exactly one
// SUCCESS, SKIP or ERROR entry, and for committed assets exactly one
// stats leaf increment.
func (r *Runner) recordResult(res assetResult, summary *RunSummary) {
	log := r.cfg.Progress
	a := res.asset

	switch res.outcome {
	case OutcomeCommitted:
		summary.Committed++
		r.cfg.Stats.Record(a, r.cfg.Mode)
		log.Entry(LevelSuccess, "Downloaded: %s (ID: %s) -> %s (%.2f MB)",
			a.Filename, a.Identity(), res.path, float64(res.size)/(1024*1024))

		if res.videoPath != "" {
			summary.LiveVideos++
			log.Entry(LevelInfo, "Live Photo video component saved: %s", res.videoPath)
		}
		if res.videoErr != nil {
			log.Entry(LevelError, "Live Photo video failed for %s: %v", a.Filename, res.videoErr)
			r.cfg.Logger.Warn("live photo companion failed", "asset", a.Filename, "error", res.videoErr)
		}
		if res.metaErr != nil {
			r.cfg.Logger.Warn("metadata not applied", "path", res.path, "error", res.metaErr)
		}
		if r.cfg.Recorder != nil {
			if err := r.cfg.Recorder.RecordCommit(a, res.path, res.hash, res.size); err != nil {
				r.cfg.Logger.Warn("catalog record failed", "path", res.path, "error", err)
			}
		}

	case OutcomeRejected:
		summary.Skipped++
		log.Entry(LevelSkip, "Duplicate: %s (ID: %s) already committed this run",
			a.Filename, a.Identity())

	case OutcomeFailed:
		summary.Failed++
		log.Entry(LevelError, "Failed: %s (ID: %s): %v", a.Filename, a.Identity(), res.err)
		r.cfg.Logger.Error("asset failed", "asset", a.Filename, "id", a.Identity(), "error", res.err)
	}
}

// writeSummary appends the end-of-run totals and the per-leaf statistics
// breakdown to the progress log.
func (r *Runner) writeSummary(summary *RunSummary) {
	log := r.cfg.Progress
	log.Rule()
	log.Entry(LevelInfo, "DOWNLOAD SESSION COMPLETE")
	log.Entry(LevelInfo, "Total files downloaded: %d", summary.Committed)
	log.Entry(LevelInfo, "Skipped duplicates across sections: %d", summary.Skipped)
	log.Entry(LevelInfo, "Errors encountered: %d", summary.Failed)
	if summary.LiveVideos > 0 {
		log.Entry(LevelInfo, "Live Photo videos saved: %d", summary.LiveVideos)
	}

	snap := r.cfg.Stats.Snapshot()
	for _, section := range sortedKeys(snap.Sections) {
		log.Entry(LevelInfo, "%s statistics:", section)
		categories := snap.Sections[section]
		for _, category := range sortedKeys(categories) {
			years := categories[category]
			var categoryTotal int64
			for _, n := range years {
				categoryTotal += n
			}
			log.Entry(LevelInfo, "  %s: %d files", category, categoryTotal)
			for _, year := range sortedKeys(years) {
				log.Entry(LevelInfo, "    %s: %d files", year, years[year])
			}
		}
	}
	if len(snap.Albums) > 0 {
		log.Entry(LevelInfo, "Shared album statistics:")
		for _, album := range sortedKeys(snap.Albums) {
			log.Entry(LevelInfo, "  %s: %d files", album, snap.Albums[album])
		}
	}
	log.Rule()
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
