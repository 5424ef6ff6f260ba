package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults holds the resolved filesystem locations the application
// starts from before any config file is read.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults resolves default paths. BACKHAUL_CONFIG_PATH overrides
// the config file location (~/.config/backhaul.toml) and BACKHAUL_HOME
// overrides the data directory (~/.local/share/backhaul).
func GetDefaults() (Defaults, error) {
	home := func() (string, error) {
		dir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return dir, nil
	}

	configPath := os.Getenv("BACKHAUL_CONFIG_PATH")
	if configPath == "" {
		dir, err := home()
		if err != nil {
			return Defaults{}, err
		}
		configPath = filepath.Join(dir, ".config", "backhaul.toml")
	}

	baseDir := os.Getenv("BACKHAUL_HOME")
	if baseDir == "" {
		dir, err := home()
		if err != nil {
			return Defaults{}, err
		}
		baseDir = filepath.Join(dir, ".local", "share", "backhaul")
	}

	return Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}
