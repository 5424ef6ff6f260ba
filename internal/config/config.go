package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for backhaul.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Database   DatabaseConfig   `toml:"database"`
	Rclone     RcloneConfig     `toml:"rclone"`
	Scanner    ScannerConfig    `toml:"scanner"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// DatabaseConfig represents configuration for the metadata database.
type DatabaseConfig struct {
	DataDir string `toml:"data_dir,omitempty"` // defaults to <base_dir>/db
}

// RcloneConfig controls how the external rclone binary is invoked.
type RcloneConfig struct {
	Binary        string   `toml:"binary"`         // default "rclone"
	LogLevel      string   `toml:"log_level"`      // default "INFO"
	StatsInterval string   `toml:"stats_interval"` // default "30s"
	Transfers     int      `toml:"transfers,omitempty"`
	Checkers      int      `toml:"checkers,omitempty"`
	DryRun        bool     `toml:"dry_run"`
	Verbose       bool     `toml:"verbose"`
	ExtraFlags    []string `toml:"extra_flags,omitempty"`
	LogDir        string   `toml:"log_dir,omitempty"` // ephemeral JSON logs; defaults to <base_dir>/rclone
}

// ScannerConfig holds file-cataloging defaults.
type ScannerConfig struct {
	HashWorkers int      `toml:"hash_workers"` // concurrent hashers per directory
	Exclude     []string `toml:"exclude"`      // patterns applied to every scan
}

// EncryptionConfig holds paths to the age key pair used for
// provider credentials.
type EncryptionConfig struct {
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// NewConfig creates a new Config with the provided base directory and
// default values.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			DataDir: filepath.Join(baseDir, "db"),
		},
		Rclone: RcloneConfig{
			Binary:        "rclone",
			LogLevel:      "INFO",
			StatsInterval: "30s",
			LogDir:        filepath.Join(baseDir, "rclone"),
		},
		Scanner: ScannerConfig{
			HashWorkers: 4,
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "backhaul.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "backhaul.key"),
		},
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

// writeToFile writes a Config to the specified file path.
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
