package pull

import (
	"fmt"
	"path/filepath"
	"time"
)

// SectionKind identifies which grouping of the remote library an asset
// was enumerated from.
type SectionKind int

const (
	SectionPersonal SectionKind = iota
	SectionSharedWithMe
	SectionSharedAlbum
)

// Section is one asset grouping: the personal library, items shared with
// the user, or a single named shared album.
type Section struct {
	Kind  SectionKind
	Album string // set only for SectionSharedAlbum
}

func Personal() Section     { return Section{Kind: SectionPersonal} }
func SharedWithMe() Section { return Section{Kind: SectionSharedWithMe} }
func SharedAlbum(name string) Section {
	return Section{Kind: SectionSharedAlbum, Album: name}
}

// DirName returns the top-level directory name for the section.
func (s Section) DirName() string {
	switch s.Kind {
	case SectionSharedWithMe:
		return "Shared_With_Me"
	case SectionSharedAlbum:
		return "Shared_Albums"
	default:
		return "Personal"
	}
}

func (s Section) String() string {
	if s.Kind == SectionSharedAlbum {
		return fmt.Sprintf("Shared_Albums/%s", s.Album)
	}
	return s.DirName()
}

// Variant names every asset is expected to use. "original" is always
// present; "video" only for live-photo pairs.
const (
	VariantOriginal = "original"
	VariantVideo    = "video"
)

// Variant is a fetch descriptor for one rendition of an asset's bytes.
// Ref is opaque to the pipeline and meaningful only to the AssetSource
// that produced it.
type Variant struct {
	Type string // "image" or "video"
	Ref  string
	Size int64 // advisory; actual size always comes from staging
}

// Location is a GPS coordinate pair.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Asset is one remote media item. A zero Created time means the source
// reported no capture date, which is a valid and recurring case.
type Asset struct {
	ID       string
	Filename string
	Created  time.Time
	Location *Location
	Section  Section
	Variants map[string]Variant
}

// Identity returns a stable identifier for the asset, falling back to
// created-time + filename when the source reported no ID.
func (a Asset) Identity() string {
	if a.ID != "" {
		return a.ID
	}
	return a.CreatedString() + "_" + a.Filename
}

// CreatedString formats the capture time for filenames and dedup keys.
func (a Asset) CreatedString() string {
	if a.Created.IsZero() {
		return "unknown_date"
	}
	return a.Created.Format("20060102_150405")
}

// VideoVariant returns the name of a companion video variant, if the
// asset carries one. Live photos declare their paired clip this way.
func (a Asset) VideoVariant() (string, bool) {
	for name, v := range a.Variants {
		if name != VariantOriginal && v.Type == "video" {
			return name, true
		}
	}
	return "", false
}

// StagedContent is the result of streaming a variant to temporary
// storage: where the bytes landed, their digest, and their true size.
type StagedContent struct {
	TempPath string
	Hash     string
	Size     int64
}

// DedupKey is the derived identity used to detect the same underlying
// asset encountered through different enumeration paths.
type DedupKey struct {
	Identity string
	Created  string
	Hash     string
	Size     int64
}

// NewDedupKey builds the key for an asset and its staged bytes.
func NewDedupKey(a Asset, staged *StagedContent) DedupKey {
	return DedupKey{
		Identity: a.Identity(),
		Created:  a.CreatedString(),
		Hash:     staged.Hash,
		Size:     staged.Size,
	}
}

// DestinationPath is a planned final location for a staged asset.
type DestinationPath struct {
	Dir      string
	Filename string
}

func (d DestinationPath) Full() string {
	return filepath.Join(d.Dir, d.Filename)
}
