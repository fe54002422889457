package pull

import (
	"context"
	"io"
	"time"
)

// AssetSource is the remote library client consumed by the pipeline.
// Authentication, session handling, and transport live behind it.
type AssetSource interface {
	// Sections returns every section the source can enumerate: the
	// personal library, the shared-with-me pool, and one section per
	// discovered shared album.
	Sections(ctx context.Context) ([]Section, error)

	// Enumerate lazily yields the assets of one section. The asset
	// channel is closed when the sequence is exhausted; a single error
	// may be delivered on the error channel if enumeration fails
	// mid-stream. The sequence is finite and not restartable mid-run.
	Enumerate(ctx context.Context, section Section) (<-chan Asset, <-chan error)

	// Fetch opens a byte stream for one variant of an asset.
	Fetch(ctx context.Context, asset Asset, variant string) (io.ReadCloser, error)
}

// MetadataWriter applies temporal/spatial metadata to committed files.
// Both operations are non-fatal to the pipeline and are skipped or
// no-ops for formats that don't support embedded tags.
type MetadataWriter interface {
	// SetFileTimes sets the file's access and modification times.
	SetFileTimes(path string, t time.Time) error

	// EmbedTags writes capture time and GPS tags into the file's
	// metadata container where the format supports it.
	EmbedTags(path string, created time.Time, loc *Location) error
}

// CaptureTimeProber recovers a capture time from staged bytes when the
// source reported none. Implementations typically read EXIF.
type CaptureTimeProber interface {
	// CaptureTime returns the embedded capture time of the file at
	// path, or the zero time if none could be recovered.
	CaptureTime(path string) (time.Time, error)
}

// CommitRecorder receives a record of every committed asset. Used to
// maintain the run catalog; failures are logged, never fatal.
type CommitRecorder interface {
	RecordCommit(asset Asset, path string, hash string, size int64) error
}
