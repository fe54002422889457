package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photopull/internal/config"
	"photopull/internal/pull"
	"photopull/internal/source"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.NewConfig("test-instance", root)
	cfg.LogDir = filepath.Join(root, "log")
	return cfg
}

func seedAsset(t *testing.T, a *App, asset pull.Asset, content []byte) {
	t.Helper()
	mem, ok := a.Source().(*source.MemorySource)
	if !ok {
		t.Fatalf("source type = %T, want *MemorySource", a.Source())
	}
	mem.Add(asset, map[string][]byte{pull.VariantOriginal: content})
}

func TestApp_Download(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewApp(cfg, "test-run")
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer a.Close()

	created := time.Date(2023, 7, 4, 12, 0, 0, 0, time.UTC)
	seedAsset(t, a, pull.Asset{
		ID: "a1", Filename: "IMG_0001.jpg", Created: created,
		Section:  pull.Personal(),
		Variants: map[string]pull.Variant{pull.VariantOriginal: {Type: "image", Ref: "r1"}},
	}, []byte("photo bytes"))

	summary, err := a.Download(context.Background(), DownloadOptions{})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if summary.Committed != 1 {
		t.Errorf("Committed = %d, want 1", summary.Committed)
	}

	entries, err := os.ReadDir(cfg.OutputRoot)
	if err != nil {
		t.Fatal(err)
	}
	var runDir string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "download_") {
			runDir = filepath.Join(cfg.OutputRoot, e.Name())
		}
	}
	if runDir == "" {
		t.Fatalf("no download_ run directory under %s", cfg.OutputRoot)
	}

	committed := filepath.Join(runDir, "Personal", "JPEG", "2023", "20230704_120000_IMG_0001.jpg")
	if _, err := os.Stat(committed); err != nil {
		t.Errorf("committed file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(runDir, pull.ProgressLogName)); err != nil {
		t.Errorf("progress log missing: %v", err)
	}

	t.Run("run recorded in history", func(t *testing.T) {
		runs, err := a.History(10)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("len(runs) = %d, want 1", len(runs))
		}
		if runs[0].Committed != 1 {
			t.Errorf("recorded Committed = %d, want 1", runs[0].Committed)
		}
		if runs[0].FinishedAt == nil {
			t.Error("FinishedAt not stamped")
		}
	})
}

func TestApp_Download_SectionFilter(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewApp(cfg, "test-run")
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer a.Close()

	created := time.Date(2023, 7, 4, 12, 0, 0, 0, time.UTC)
	seedAsset(t, a, pull.Asset{
		ID: "p1", Filename: "a.jpg", Created: created,
		Section:  pull.Personal(),
		Variants: map[string]pull.Variant{pull.VariantOriginal: {Type: "image", Ref: "rp"}},
	}, []byte("personal"))
	seedAsset(t, a, pull.Asset{
		ID: "s1", Filename: "b.jpg", Created: created,
		Section:  pull.SharedWithMe(),
		Variants: map[string]pull.Variant{pull.VariantOriginal: {Type: "image", Ref: "rs"}},
	}, []byte("shared"))

	summary, err := a.Download(context.Background(), DownloadOptions{Personal: true})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if summary.Committed != 1 {
		t.Errorf("Committed = %d, want 1 (shared section filtered out)", summary.Committed)
	}
}

func TestApp_Download_BadMode(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewApp(cfg, "test-run")
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer a.Close()

	if _, err := a.Download(context.Background(), DownloadOptions{Mode: "by_month"}); err == nil {
		t.Error("Download() with unknown mode expected error")
	}
}

func TestApp_Count(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewApp(cfg, "test-run")
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer a.Close()

	created := time.Date(2023, 7, 4, 12, 0, 0, 0, time.UTC)
	for i, ref := range []string{"r1", "r2", "r3"} {
		seedAsset(t, a, pull.Asset{
			ID: ref, Filename: ref + ".jpg", Created: created.AddDate(0, 0, i),
			Section:  pull.Personal(),
			Variants: map[string]pull.Variant{pull.VariantOriginal: {Type: "image", Ref: ref}},
		}, []byte(ref))
	}

	counts, err := a.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if counts["Personal"] != 3 {
		t.Errorf("counts[Personal] = %d, want 3", counts["Personal"])
	}
	if counts["Shared_With_Me"] != 0 {
		t.Errorf("counts[Shared_With_Me] = %d, want 0", counts["Shared_With_Me"])
	}
}
