package pull

import "sync"

// Stats aggregates committed-asset counters for one run. Library
// sections are counted per section/category/year; shared-album assets
// are counted per album, matching the flat album layout. The sum over
// all leaves equals the number of assets that reached the committed
// state.
type Stats struct {
	mu       sync.Mutex
	sections map[string]map[string]map[string]int64
	albums   map[string]int64
}

func NewStats() *Stats {
	return &Stats{
		sections: make(map[string]map[string]map[string]int64),
		albums:   make(map[string]int64),
	}
}

// Record counts one committed asset. The category is the type bucket or
// location bucket, depending on the run's organization mode.
func (s *Stats) Record(a Asset, mode OrgMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.Section.Kind == SectionSharedAlbum {
		s.albums[a.Section.Album]++
		return
	}

	var category string
	switch mode {
	case OrgLocationYear:
		category = LocationBucket(a.Location)
	default:
		category = TypeBucket(a.Filename)
	}

	section := a.Section.DirName()
	if s.sections[section] == nil {
		s.sections[section] = make(map[string]map[string]int64)
	}
	if s.sections[section][category] == nil {
		s.sections[section][category] = make(map[string]int64)
	}
	s.sections[section][category][YearBucket(a)]++
}

// Total returns the sum over all leaves.
func (s *Stats) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, categories := range s.sections {
		for _, years := range categories {
			for _, n := range years {
				total += n
			}
		}
	}
	for _, n := range s.albums {
		total += n
	}
	return total
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Sections map[string]map[string]map[string]int64
	Albums   map[string]int64
}

// Snapshot returns a deep copy safe to read without locking.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		Sections: make(map[string]map[string]map[string]int64, len(s.sections)),
		Albums:   make(map[string]int64, len(s.albums)),
	}
	for section, categories := range s.sections {
		snap.Sections[section] = make(map[string]map[string]int64, len(categories))
		for category, years := range categories {
			yearsCopy := make(map[string]int64, len(years))
			for year, n := range years {
				yearsCopy[year] = n
			}
			snap.Sections[section][category] = yearsCopy
		}
	}
	for album, n := range s.albums {
		snap.Albums[album] = n
	}
	return snap
}
