package feed

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadSettings_EmptyPathReturnsDefaults(t *testing.T) {
	settings, err := LoadSettings("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if settings.GetFetchTimeout() != 30*time.Second {
		t.Errorf("Expected default fetch timeout 30s, got %v", settings.GetFetchTimeout())
	}
	if settings.GetMaxItemAge("https://a.example/rss") != 0 {
		t.Errorf("Expected unlimited item age by default, got %v", settings.GetMaxItemAge("https://a.example/rss"))
	}
}

func TestLoadSettings_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	content := `fetch_timeout: 10
max_item_age: 48
feeds:
  "https://a.example/rss":
    max_item_age: 6
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if settings.GetFetchTimeout() != 10*time.Second {
		t.Errorf("Expected fetch timeout 10s, got %v", settings.GetFetchTimeout())
	}
	if settings.GetMaxItemAge("https://b.example/rss") != 48*time.Hour {
		t.Errorf("Expected global max item age 48h, got %v", settings.GetMaxItemAge("https://b.example/rss"))
	}
	if settings.GetMaxItemAge("https://a.example/rss") != 6*time.Hour {
		t.Errorf("Expected per-feed max item age 6h, got %v", settings.GetMaxItemAge("https://a.example/rss"))
	}
}

func TestLoadSettings_MissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yml"))
	if err == nil {
		t.Error("Expected an error for a missing settings file")
	}
}

func TestLoadSettings_RejectsNegativeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	if err := os.WriteFile(path, []byte("max_item_age: -1\n"), 0644); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}

	_, err := LoadSettings(path)
	if err == nil {
		t.Error("Expected an error for a negative max item age")
	}
}
