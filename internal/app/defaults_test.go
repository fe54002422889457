package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("PHOTOPULL_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("PHOTOPULL_HOME", "/custom/photopull")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["base_dir"] != "/custom/photopull" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/photopull")
		}
		if defaults["log_dir"] != "/custom/photopull/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/photopull/log")
		}
		if defaults["data_dir"] != "/custom/photopull/data" {
			t.Errorf("data_dir = %q, want %q", defaults["data_dir"], "/custom/photopull/data")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("PHOTOPULL_CONFIG_PATH", "")
		t.Setenv("PHOTOPULL_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "photopull.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "photopull")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}

		wantLog := filepath.Join(wantBase, "log")
		if defaults["log_dir"] != wantLog {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], wantLog)
		}
	})
}
