package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PHOTOPULL_CONFIG_PATH: config file location (default: ~/.config/photopull.toml)
//   - PHOTOPULL_HOME: base directory for photopull data (default: ~/.local/share/photopull)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"data_dir":    filepath.Join(baseDir, "data"),
	}, nil
}

// getConfigPath returns the config file path, checking PHOTOPULL_CONFIG_PATH
// first, then falling back to the default ~/.config/photopull.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("PHOTOPULL_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "photopull.toml"), nil
}

// getBaseDir returns the base directory for photopull data, checking
// PHOTOPULL_HOME first, then falling back to the XDG default
// ~/.local/share/photopull.
func getBaseDir() (string, error) {
	if path := os.Getenv("PHOTOPULL_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "photopull"), nil
}
