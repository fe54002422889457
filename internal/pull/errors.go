package pull

import "fmt"

// TransportError reports a fault in the remote collaborator itself:
// section enumeration or a fetch call failing at the network/auth layer.
type TransportError struct {
	Section Section
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.Section, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FetchError reports a stream truncated or interrupted while staging a
// variant's bytes. The staging temp file has already been cleaned up.
type FetchError struct {
	Asset   string
	Variant string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s variant of %s: %v", e.Variant, e.Asset, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CommitError reports a filesystem fault while moving staged content to
// its final path.
type CommitError struct {
	Path string
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit to %s: %v", e.Path, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// MetadataError reports a non-fatal failure to apply timestamps or tags
// to a committed file.
type MetadataError struct {
	Path string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata for %s: %v", e.Path, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// LivePhotoError reports a non-fatal failure to stage or commit a live
// photo's companion video. The original photo's commit stands.
type LivePhotoError struct {
	Asset string
	Err   error
}

func (e *LivePhotoError) Error() string {
	return fmt.Sprintf("live photo companion for %s: %v", e.Asset, e.Err)
}

func (e *LivePhotoError) Unwrap() error { return e.Err }
