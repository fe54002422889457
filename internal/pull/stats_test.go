package pull

import (
	"testing"
	"time"
)

func TestStats_Record(t *testing.T) {
	created := time.Date(2022, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("library sections count per category and year", func(t *testing.T) {
		s := NewStats()

		s.Record(Asset{Filename: "a.jpg", Created: created, Section: Personal()}, OrgTypeYear)
		s.Record(Asset{Filename: "b.jpg", Created: created, Section: Personal()}, OrgTypeYear)
		s.Record(Asset{Filename: "c.mov", Created: created, Section: SharedWithMe()}, OrgTypeYear)

		snap := s.Snapshot()
		if got := snap.Sections["Personal"]["JPEG"]["2022"]; got != 2 {
			t.Errorf("Personal/JPEG/2022 = %d, want 2", got)
		}
		if got := snap.Sections["Shared_With_Me"]["Videos"]["2022"]; got != 1 {
			t.Errorf("Shared_With_Me/Videos/2022 = %d, want 1", got)
		}
		if s.Total() != 3 {
			t.Errorf("Total() = %d, want 3", s.Total())
		}
	})

	t.Run("location mode buckets by coordinates", func(t *testing.T) {
		s := NewStats()
		loc := &Location{Latitude: 35.6762, Longitude: 139.6503}
		s.Record(Asset{Filename: "a.jpg", Created: created, Location: loc, Section: Personal()}, OrgLocationYear)

		snap := s.Snapshot()
		if got := snap.Sections["Personal"]["Lat35.68_Lon139.65"]["2022"]; got != 1 {
			t.Errorf("location bucket count = %d, want 1", got)
		}
	})

	t.Run("album assets count per album name", func(t *testing.T) {
		s := NewStats()
		s.Record(Asset{Filename: "a.jpg", Created: created, Section: SharedAlbum("Trip")}, OrgTypeYear)
		s.Record(Asset{Filename: "b.jpg", Created: created, Section: SharedAlbum("Trip")}, OrgTypeYear)
		s.Record(Asset{Filename: "c.jpg", Created: created, Section: SharedAlbum("Pets")}, OrgTypeYear)

		snap := s.Snapshot()
		if snap.Albums["Trip"] != 2 || snap.Albums["Pets"] != 1 {
			t.Errorf("Albums = %v, want Trip:2 Pets:1", snap.Albums)
		}
		if s.Total() != 3 {
			t.Errorf("Total() = %d, want 3", s.Total())
		}
	})

	t.Run("unknown year leaf", func(t *testing.T) {
		s := NewStats()
		s.Record(Asset{Filename: "a.jpg", Section: Personal()}, OrgTypeYear)

		snap := s.Snapshot()
		if got := snap.Sections["Personal"]["JPEG"]["unknown_year"]; got != 1 {
			t.Errorf("unknown_year leaf = %d, want 1", got)
		}
	})

	t.Run("snapshot is a deep copy", func(t *testing.T) {
		s := NewStats()
		s.Record(Asset{Filename: "a.jpg", Created: created, Section: Personal()}, OrgTypeYear)

		snap := s.Snapshot()
		snap.Sections["Personal"]["JPEG"]["2022"] = 99

		if got := s.Snapshot().Sections["Personal"]["JPEG"]["2022"]; got != 1 {
			t.Errorf("mutating snapshot changed live counter: %d", got)
		}
	})
}
