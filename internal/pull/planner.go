package pull

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// OrgMode selects the directory layout for one run.
type OrgMode int

const (
	// OrgTypeYear lays out <root>/<Section>/<TypeBucket>/<Year>/.
	OrgTypeYear OrgMode = iota
	// OrgLocationYear lays out <root>/<Section>/<LocationBucket>/<Year>/.
	OrgLocationYear
)

// ParseOrgMode maps the config/CLI spelling to an OrgMode.
func ParseOrgMode(s string) (OrgMode, error) {
	switch s {
	case "", "type_year":
		return OrgTypeYear, nil
	case "location_year":
		return OrgLocationYear, nil
	default:
		return OrgTypeYear, fmt.Errorf("unknown organization mode: %q", s)
	}
}

func (m OrgMode) String() string {
	if m == OrgLocationYear {
		return "location_year"
	}
	return "type_year"
}

// typeBuckets maps file extensions to layout buckets.
var typeBuckets = map[string]string{
	".heic": "HEIC",
	".jpg":  "JPEG",
	".jpeg": "JPEG",
	".png":  "PNG",
	".gif":  "GIF",
	".mov":  "Videos",
	".mp4":  "Videos",
	".m4v":  "Videos",
	".raw":  "RAW",
	".dng":  "RAW",
	".cr2":  "RAW",
	".arw":  "RAW",
}

// TypeBucket returns the layout bucket for a filename's extension.
func TypeBucket(filename string) string {
	if bucket, ok := typeBuckets[strings.ToLower(filepath.Ext(filename))]; ok {
		return bucket
	}
	return "Others"
}

// LocationBucket returns the layout bucket for an asset's coordinates,
// rounded to two decimal places, or "Unknown_Location" when none are
// resolvable.
func LocationBucket(loc *Location) string {
	if loc == nil {
		return "Unknown_Location"
	}
	return fmt.Sprintf("Lat%.2f_Lon%.2f", loc.Latitude, loc.Longitude)
}

// YearBucket returns the asset's capture year, or "unknown_year".
func YearBucket(a Asset) string {
	if a.Created.IsZero() {
		return "unknown_year"
	}
	return fmt.Sprintf("%d", a.Created.Year())
}

// PathPlanner computes collision-free destination paths under a fixed
// root for one run. It remembers every path it has handed out so that
// concurrent workers can never be assigned the same file, and it also
// checks the disk so content from earlier in the run (or anything else
// already present) is never overwritten.
type PathPlanner struct {
	root string
	mode OrgMode

	mu    sync.Mutex
	taken map[string]struct{}
}

func NewPathPlanner(root string, mode OrgMode) *PathPlanner {
	return &PathPlanner{
		root:  root,
		mode:  mode,
		taken: make(map[string]struct{}),
	}
}

// Plan computes and reserves the destination for an admitted asset.
func (p *PathPlanner) Plan(a Asset) (DestinationPath, error) {
	dir := p.directoryFor(a)
	base := a.CreatedString() + "_" + a.Filename
	return p.Reserve(dir, base)
}

// directoryFor returns the destination directory (not yet created).
// Shared-album assets always land flat under Shared_Albums/<album>,
// regardless of organization mode.
func (p *PathPlanner) directoryFor(a Asset) string {
	if a.Section.Kind == SectionSharedAlbum {
		return filepath.Join(p.root, "Shared_Albums", a.Section.Album)
	}

	var bucket string
	switch p.mode {
	case OrgLocationYear:
		bucket = LocationBucket(a.Location)
	default:
		bucket = TypeBucket(a.Filename)
	}
	return filepath.Join(p.root, a.Section.DirName(), bucket, YearBucket(a))
}

// Reserve finds the first free filename for base in dir, inserting a
// zero-padded numeric suffix before the extension on collision. The loop
// takes one step per prior collision and never overwrites.
func (p *PathPlanner) Reserve(dir, base string) (DestinationPath, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	name := base
	for counter := 1; ; counter++ {
		full := filepath.Join(dir, name)
		if !p.inUse(full) {
			p.taken[full] = struct{}{}
			return DestinationPath{Dir: dir, Filename: name}, nil
		}
		name = fmt.Sprintf("%s_%03d%s", stem, counter, ext)
	}
}

// inUse reports whether the path was already handed out this run or
// exists on disk.
func (p *PathPlanner) inUse(full string) bool {
	if _, ok := p.taken[full]; ok {
		return true
	}
	_, err := os.Stat(full)
	return err == nil
}
