package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for photopull.
type Config struct {
	InstanceID   string         `toml:"instance_id"`
	OutputRoot   string         `toml:"output_root"`
	LogDir       string         `toml:"log_dir"`
	Organization string         `toml:"organization"` // "type_year" or "location_year"
	Workers      int            `toml:"workers"`
	MinFreeGB    int            `toml:"min_free_gb"`
	Sections     SectionsConfig `toml:"sections"`
	Source       SourceConfig   `toml:"source"`
	Catalog      CatalogConfig  `toml:"catalog"`
}

// SectionsConfig selects which library sections a run covers.
type SectionsConfig struct {
	Personal bool `toml:"personal"`
	Shared   bool `toml:"shared"`
	Albums   bool `toml:"albums"`
}

// SourceConfig represents configuration for an asset source backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type SourceConfig struct {
	Type string `toml:"type"` // "s3" or "memory"

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	MaxRPS         int `toml:"max_rps"`         // 0 disables rate limiting
	TimeoutSeconds int `toml:"timeout_seconds"` // per-call timeout, defaults to 30
	MaxRetries     int `toml:"max_retries"`     // defaults to 3
}

// CatalogConfig represents configuration for the run catalog.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type CatalogConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// NewConfig creates a new Config with the provided values and sensible defaults.
func NewConfig(instanceID, outputRoot string) *Config {
	return &Config{
		InstanceID:   instanceID,
		OutputRoot:   outputRoot,
		LogDir:       filepath.Join(outputRoot, "log"),
		Organization: "type_year",
		Workers:      4,
		Sections: SectionsConfig{
			Personal: true,
			Shared:   true,
			Albums:   true,
		},
		Source:  SourceConfig{Type: "memory"},
		Catalog: CatalogConfig{Type: "memory"},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
