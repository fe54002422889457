package pull

import (
	"sync"
	"testing"
	"time"
)

func testAsset(id, filename string) Asset {
	return Asset{
		ID:       id,
		Filename: filename,
		Created:  time.Date(2023, 7, 4, 12, 0, 0, 0, time.UTC),
		Section:  Personal(),
		Variants: map[string]Variant{VariantOriginal: {Type: "image", Ref: "ref-" + id}},
	}
}

func TestDeduplicator_Admit(t *testing.T) {
	t.Run("first admission wins", func(t *testing.T) {
		d := NewDeduplicator()
		key := NewDedupKey(testAsset("a1", "IMG_0001.heic"), &StagedContent{Hash: "abc", Size: 100})

		if !d.Admit(key) {
			t.Fatal("first Admit() = false, want true")
		}
		if d.Admit(key) {
			t.Fatal("second Admit() = true, want false")
		}
		if d.Len() != 1 {
			t.Errorf("Len() = %d, want 1", d.Len())
		}
	})

	t.Run("distinct keys both admitted", func(t *testing.T) {
		d := NewDeduplicator()
		a := testAsset("a1", "IMG_0001.heic")

		k1 := NewDedupKey(a, &StagedContent{Hash: "abc", Size: 100})
		k2 := NewDedupKey(a, &StagedContent{Hash: "def", Size: 100})

		if !d.Admit(k1) || !d.Admit(k2) {
			t.Fatal("differing hashes should both be admitted")
		}
	})

	t.Run("same bytes from different sections collide", func(t *testing.T) {
		d := NewDeduplicator()
		a := testAsset("a1", "IMG_0001.heic")
		b := a
		b.Section = SharedAlbum("Vacation")

		staged := &StagedContent{Hash: "abc", Size: 100}
		if !d.Admit(NewDedupKey(a, staged)) {
			t.Fatal("first section copy should be admitted")
		}
		if d.Admit(NewDedupKey(b, staged)) {
			t.Fatal("identical asset via another section should be rejected")
		}
	})

	t.Run("exactly one winner under concurrency", func(t *testing.T) {
		d := NewDeduplicator()
		key := NewDedupKey(testAsset("a1", "IMG_0001.heic"), &StagedContent{Hash: "abc", Size: 100})

		const goroutines = 32
		var wg sync.WaitGroup
		wins := make(chan bool, goroutines)
		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				wins <- d.Admit(key)
			}()
		}
		wg.Wait()
		close(wins)

		won := 0
		for w := range wins {
			if w {
				won++
			}
		}
		if won != 1 {
			t.Errorf("winners = %d, want exactly 1", won)
		}
	})
}

func TestAsset_Identity(t *testing.T) {
	t.Run("prefers source id", func(t *testing.T) {
		a := testAsset("asset-9", "IMG_0002.jpg")
		if got := a.Identity(); got != "asset-9" {
			t.Errorf("Identity() = %q, want %q", got, "asset-9")
		}
	})

	t.Run("falls back to created time and filename", func(t *testing.T) {
		a := testAsset("", "IMG_0002.jpg")
		want := "20230704_120000_IMG_0002.jpg"
		if got := a.Identity(); got != want {
			t.Errorf("Identity() = %q, want %q", got, want)
		}
	})

	t.Run("unknown date fallback", func(t *testing.T) {
		a := testAsset("", "IMG_0002.jpg")
		a.Created = time.Time{}
		want := "unknown_date_IMG_0002.jpg"
		if got := a.Identity(); got != want {
			t.Errorf("Identity() = %q, want %q", got, want)
		}
	})
}
