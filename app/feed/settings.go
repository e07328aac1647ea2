package feed

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds fetch and pruning settings, with optional per-feed
// overrides keyed by source URL. All of it is optional: a missing
// settings file yields the defaults.
type Settings struct {
	FetchTimeout int `yaml:"fetch_timeout"` // seconds
	MaxItemAge   int `yaml:"max_item_age"`  // hours, 0 = unlimited

	Feeds map[string]FeedSettings `yaml:"feeds"`
}

type FeedSettings struct {
	MaxItemAge *int `yaml:"max_item_age"` // hours, overrides the global value
}

func DefaultSettings() *Settings {
	return &Settings{
		FetchTimeout: 30,
		MaxItemAge:   0,
	}
}

// LoadSettings reads the optional YAML settings file. An empty path
// returns the defaults.
func LoadSettings(path string) (*Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	setDefaults(settings)

	if err := validate(settings); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", path, err)
	}

	return settings, nil
}

func setDefaults(s *Settings) {
	if s.FetchTimeout == 0 {
		s.FetchTimeout = 30 // seconds
	}
}

func validate(s *Settings) error {
	if s.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must be non-negative")
	}
	if s.MaxItemAge < 0 {
		return fmt.Errorf("max item age must be non-negative")
	}
	for url, fs := range s.Feeds {
		if fs.MaxItemAge != nil && *fs.MaxItemAge < 0 {
			return fmt.Errorf("max item age for %s must be non-negative", url)
		}
	}
	return nil
}

func (s *Settings) GetFetchTimeout() time.Duration {
	if s.FetchTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.FetchTimeout) * time.Second
}

// GetMaxItemAge returns the pruning age for a feed, zero meaning
// unlimited.
func (s *Settings) GetMaxItemAge(sourceURL string) time.Duration {
	if fs, ok := s.Feeds[sourceURL]; ok && fs.MaxItemAge != nil {
		return time.Duration(*fs.MaxItemAge) * time.Hour
	}
	return time.Duration(s.MaxItemAge) * time.Hour
}
