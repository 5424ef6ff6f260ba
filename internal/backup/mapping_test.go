package backup_test

import (
	"errors"
	"testing"

	"backhaul/internal/backup"
)

func TestParseMappings(t *testing.T) {
	t.Run("single source and destination", func(t *testing.T) {
		mappings, err := backup.ParseMappings(`{"/data": ["remote:bucket/data"]}`)
		if err != nil {
			t.Fatalf("ParseMappings() error = %v", err)
		}
		if len(mappings) != 1 {
			t.Fatalf("ParseMappings() len = %d, want 1", len(mappings))
		}
		if mappings[0].Source != "/data" {
			t.Errorf("Source = %q, want /data", mappings[0].Source)
		}
		if len(mappings[0].Destinations) != 1 || mappings[0].Destinations[0] != "remote:bucket/data" {
			t.Errorf("Destinations = %v, want [remote:bucket/data]", mappings[0].Destinations)
		}
	})

	t.Run("preserves declared order", func(t *testing.T) {
		raw := `{
			"/zzz": ["b2:one"],
			"/aaa": ["s3:two", "b2:three"],
			"/mmm": ["s3:four"]
		}`
		mappings, err := backup.ParseMappings(raw)
		if err != nil {
			t.Fatalf("ParseMappings() error = %v", err)
		}
		wantSources := []string{"/zzz", "/aaa", "/mmm"}
		if len(mappings) != len(wantSources) {
			t.Fatalf("ParseMappings() len = %d, want %d", len(mappings), len(wantSources))
		}
		for i, want := range wantSources {
			if mappings[i].Source != want {
				t.Errorf("mappings[%d].Source = %q, want %q", i, mappings[i].Source, want)
			}
		}
		if got := mappings[1].Destinations; len(got) != 2 || got[0] != "s3:two" || got[1] != "b2:three" {
			t.Errorf("destinations = %v, want [s3:two b2:three]", got)
		}
	})

	t.Run("invalid inputs", func(t *testing.T) {
		for name, raw := range map[string]string{
			"empty string":          "",
			"not an object":         `["remote:a"]`,
			"empty object":          `{}`,
			"empty source":          `{"": ["remote:a"]}`,
			"empty destinations":    `{"/data": []}`,
			"empty destination":     `{"/data": ["remote:a", ""]}`,
			"destinations not list": `{"/data": "remote:a"}`,
			"truncated":             `{"/data": ["remote:a"]`,
		} {
			if _, err := backup.ParseMappings(raw); !errors.Is(err, backup.ErrInvalidMapping) {
				t.Errorf("%s: ParseMappings() error = %v, want ErrInvalidMapping", name, err)
			}
		}
	})
}
