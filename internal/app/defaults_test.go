package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("BACKHAUL_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("BACKHAUL_HOME", "/custom/backhaul")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if d.ConfigPath != "/custom/config.toml" {
			t.Errorf("ConfigPath = %q, want /custom/config.toml", d.ConfigPath)
		}
		if d.BaseDir != "/custom/backhaul" {
			t.Errorf("BaseDir = %q, want /custom/backhaul", d.BaseDir)
		}
		if d.LogDir != "/custom/backhaul/log" {
			t.Errorf("LogDir = %q, want /custom/backhaul/log", d.LogDir)
		}
	})

	t.Run("home dir fallback", func(t *testing.T) {
		t.Setenv("BACKHAUL_CONFIG_PATH", "")
		t.Setenv("BACKHAUL_HOME", "")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		if want := filepath.Join(homeDir, ".config", "backhaul.toml"); d.ConfigPath != want {
			t.Errorf("ConfigPath = %q, want %q", d.ConfigPath, want)
		}
		wantBase := filepath.Join(homeDir, ".local", "share", "backhaul")
		if d.BaseDir != wantBase {
			t.Errorf("BaseDir = %q, want %q", d.BaseDir, wantBase)
		}
		if want := filepath.Join(wantBase, "log"); d.LogDir != want {
			t.Errorf("LogDir = %q, want %q", d.LogDir, want)
		}
	})
}
