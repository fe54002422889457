package pull

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// LivePhotoHandler pairs a committed photo with its companion video.
// The video is staged and committed through the same stager/committer
// pair as the original and lands in a Videos/ directory beside the
// photo, named <basename>.mov, with the photo's timestamp applied.
type LivePhotoHandler struct {
	stager    *ContentStager
	planner   *PathPlanner
	committer *Committer
	meta      MetadataWriter
}

func NewLivePhotoHandler(stager *ContentStager, planner *PathPlanner, committer *Committer, meta MetadataWriter) *LivePhotoHandler {
	return &LivePhotoHandler{
		stager:    stager,
		planner:   planner,
		committer: committer,
		meta:      meta,
	}
}

// Handle commits the companion video of a live photo, if the asset has
// one. It returns the committed video path, or "" when the asset is not
// a live photo. Errors are wrapped as LivePhotoError and are non-fatal
// to the original photo's commit.
func (h *LivePhotoHandler) Handle(ctx context.Context, asset Asset, committedOriginal string) (string, error) {
	variant, ok := asset.VideoVariant()
	if !ok {
		return "", nil
	}

	staged, err := h.stager.Stage(ctx, asset, variant)
	if err != nil {
		return "", &LivePhotoError{Asset: asset.Filename, Err: err}
	}

	base := filepath.Base(committedOriginal)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".mov"
	videoDir := filepath.Join(filepath.Dir(committedOriginal), "Videos")

	dest, err := h.planner.Reserve(videoDir, name)
	if err != nil {
		staged.Discard()
		return "", &LivePhotoError{Asset: asset.Filename, Err: err}
	}

	path, err := h.committer.Commit(staged, dest)
	if err != nil {
		staged.Discard()
		return "", &LivePhotoError{Asset: asset.Filename, Err: err}
	}

	if !asset.Created.IsZero() {
		if err := h.propagateTimestamp(path, asset.Created); err != nil {
			return path, &LivePhotoError{Asset: asset.Filename, Err: err}
		}
	}
	return path, nil
}

func (h *LivePhotoHandler) propagateTimestamp(path string, t time.Time) error {
	if h.meta == nil {
		return nil
	}
	return h.meta.SetFileTimes(path, t)
}
