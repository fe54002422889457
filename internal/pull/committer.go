package pull

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// Committer atomically moves staged content to its final path. Missing
// intermediate directories are created first; the move itself is a
// rename, so no observer ever sees a partially written file at the
// destination. When staging and destination live on different devices
// the content is first copied to a temp file in the destination
// directory and then renamed, preserving the same visibility guarantee.
type Committer struct{}

func NewCommitter() *Committer { return &Committer{} }

// Commit moves staged bytes to dest and returns the final path.
func (c *Committer) Commit(staged *StagedContent, dest DestinationPath) (string, error) {
	if err := os.MkdirAll(dest.Dir, 0755); err != nil {
		return "", &CommitError{Path: dest.Full(), Err: err}
	}

	full := dest.Full()
	err := os.Rename(staged.TempPath, full)
	if err != nil && errors.Is(err, syscall.EXDEV) {
		err = c.moveAcrossDevices(staged.TempPath, full)
	}
	if err != nil {
		return "", &CommitError{Path: full, Err: err}
	}
	return full, nil
}

// moveAcrossDevices copies src into a temp file beside dest and renames
// it into place, then removes src.
func (c *Committer) moveAcrossDevices(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".commit-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("copying across devices: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return err
	}
	os.Remove(src)
	return nil
}
