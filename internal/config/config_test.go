package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/backhaul",
		LogDir:  "/home/user/.local/share/backhaul/log",
		Database: DatabaseConfig{
			DataDir: "/home/user/.local/share/backhaul/db",
		},
		Rclone: RcloneConfig{
			Binary:        "/usr/local/bin/rclone",
			LogLevel:      "DEBUG",
			StatsInterval: "10s",
			Transfers:     8,
			Checkers:      16,
			DryRun:        true,
			ExtraFlags:    []string{"--fast-list"},
			LogDir:        "/home/user/.local/share/backhaul/rclone",
		},
		Scanner: ScannerConfig{
			HashWorkers: 2,
			Exclude:     []string{"*.tmp", ".git"},
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  "/home/user/.local/share/backhaul/keys/backhaul.pub",
			PrivateKeyPath: "/home/user/.local/share/backhaul/keys/backhaul.key",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Database.DataDir != original.Database.DataDir {
		t.Errorf("Database.DataDir = %q, want %q", got.Database.DataDir, original.Database.DataDir)
	}
	if got.Rclone.Binary != "/usr/local/bin/rclone" {
		t.Errorf("Rclone.Binary = %q, want %q", got.Rclone.Binary, "/usr/local/bin/rclone")
	}
	if got.Rclone.Transfers != 8 || got.Rclone.Checkers != 16 {
		t.Errorf("Rclone transfers/checkers = %d/%d, want 8/16", got.Rclone.Transfers, got.Rclone.Checkers)
	}
	if !got.Rclone.DryRun {
		t.Error("Rclone.DryRun = false, want true")
	}
	if len(got.Rclone.ExtraFlags) != 1 || got.Rclone.ExtraFlags[0] != "--fast-list" {
		t.Errorf("Rclone.ExtraFlags = %v, want [--fast-list]", got.Rclone.ExtraFlags)
	}
	if got.Scanner.HashWorkers != 2 {
		t.Errorf("Scanner.HashWorkers = %d, want 2", got.Scanner.HashWorkers)
	}
	if len(got.Scanner.Exclude) != 2 {
		t.Fatalf("len(Scanner.Exclude) = %d, want 2", len(got.Scanner.Exclude))
	}
	if got.Encryption.PublicKeyPath != original.Encryption.PublicKeyPath {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", got.Encryption.PublicKeyPath, original.Encryption.PublicKeyPath)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/backhaul")

	if cfg.BaseDir != "/data/backhaul" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/backhaul")
	}
	if cfg.LogDir != "/data/backhaul/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/backhaul/log")
	}
	if cfg.Database.DataDir != "/data/backhaul/db" {
		t.Errorf("Database.DataDir = %q, want %q", cfg.Database.DataDir, "/data/backhaul/db")
	}
	if cfg.Rclone.Binary != "rclone" {
		t.Errorf("Rclone.Binary = %q, want %q", cfg.Rclone.Binary, "rclone")
	}
	if cfg.Rclone.StatsInterval != "30s" {
		t.Errorf("Rclone.StatsInterval = %q, want %q", cfg.Rclone.StatsInterval, "30s")
	}
	if cfg.Scanner.HashWorkers != 4 {
		t.Errorf("Scanner.HashWorkers = %d, want 4", cfg.Scanner.HashWorkers)
	}
	if cfg.Encryption.PublicKeyPath != "/data/backhaul/keys/backhaul.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", cfg.Encryption.PublicKeyPath, "/data/backhaul/keys/backhaul.pub")
	}
	if cfg.Encryption.PrivateKeyPath != "/data/backhaul/keys/backhaul.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", cfg.Encryption.PrivateKeyPath, "/data/backhaul/keys/backhaul.key")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "backhaul.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "backhaul.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "backhaul.toml")
		cfg := NewConfig(dir)
		cfg.Rclone.LogLevel = "NOTICE"

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Rclone.LogLevel != "NOTICE" {
			t.Errorf("Rclone.LogLevel = %q, want %q", got.Rclone.LogLevel, "NOTICE")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ReadFromFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Fatal("ReadFromFile() expected error")
		}
	})
}
