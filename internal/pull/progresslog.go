package pull

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ProgressLog levels. SUCCESS, SKIP and ERROR mark per-asset outcomes;
// PROCESS and INFO carry progress and summary lines.
const (
	LevelInfo    = "INFO"
	LevelProcess = "PROCESS"
	LevelSuccess = "SUCCESS"
	LevelSkip    = "SKIP"
	LevelError   = "ERROR"
)

// ProgressLogName is the per-run log file created under the output root.
const ProgressLogName = "download_progress_detailed.txt"

// ProgressLog is the append-only, monotonically numbered per-asset
// outcome log for one run. Every entry is written to the log file and
// mirrored to the console writer. Sequence numbers are strictly
// increasing and gap-free; the mutex that guards the counter also
// serializes the writes, so concurrent workers interleave whole lines
// in completion order.
type ProgressLog struct {
	mu      sync.Mutex
	file    *os.File
	console io.Writer
	clock   Clock
	seq     int
}

// NewProgressLog creates (or truncates) the log file under root and
// writes the session header. console may be io.Discard.
func NewProgressLog(root string, console io.Writer, clock Clock) (*ProgressLog, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating output root: %w", err)
	}

	path := filepath.Join(root, ProgressLogName)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating progress log: %w", err)
	}

	header := strings.Repeat("=", 80)
	fmt.Fprintf(f, "%s\nPhoto Download - Detailed Progress Log\nStarted: %s\n%s\n\n",
		header, clock.Now().Format("2006-01-02 15:04:05"), header)

	return &ProgressLog{file: f, console: console, clock: clock}, nil
}

// Entry appends one numbered line at the given level.
func (l *ProgressLog) Entry(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	line := fmt.Sprintf("%04d- [%s] [%s] %s",
		l.seq, l.clock.Now().Format("2006-01-02 15:04:05"), level, fmt.Sprintf(format, args...))
	fmt.Fprintln(l.file, line)
	if l.console != nil {
		fmt.Fprintln(l.console, line)
	}
}

// Rule appends a visual separator entry.
func (l *ProgressLog) Rule() {
	l.Entry(LevelInfo, "%s", strings.Repeat("=", 60))
}

// Seq returns the number of entries written so far.
func (l *ProgressLog) Seq() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// Close flushes and closes the log file.
func (l *ProgressLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
