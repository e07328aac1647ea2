package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Subscription list configuration
	SourceOPML string `long:"source-opml" env:"SOURCE_OPML" default:"./subscriptions.opml" description:"Source OPML file with subscribed feeds"`
	TargetOPML string `long:"target-opml" env:"TARGET_OPML" default:"./subscriptions-dedup.opml" description:"Merged OPML file pointing at the republished feeds"`

	// Storage configuration
	DataDir   string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory for the registry database"`
	OutputDir string `long:"output-dir" env:"OUTPUT_DIR" default:"./output" description:"Directory for republished feed files"`

	// Application configuration
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl       string `long:"base-url" env:"BASE_URL" description:"Public base URL for republished feeds (e.g., https://feeds.example.com)"`
	Interval      int    `long:"interval" env:"INTERVAL" default:"60" description:"Seconds between fetch iterations"`
	MaxIterations int    `long:"max-iterations" env:"MAX_ITERATIONS" default:"0" description:"Maximum number of iterations, 0 means unlimited"`
	WorkerCount   int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of concurrent feed fetchers"`
	SettingsFile  string `long:"settings-file" env:"SETTINGS_FILE" description:"Optional YAML file with fetch settings and per-feed overrides"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Dedup/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for the daily purge boundary (e.g., UTC, Europe/Berlin)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		SourceOPML:    raw.SourceOPML,
		TargetOPML:    raw.TargetOPML,
		DataDir:       raw.DataDir,
		OutputDir:     raw.OutputDir,
		Port:          raw.Port,
		BaseUrl:       raw.BaseUrl,
		Interval:      raw.Interval,
		MaxIterations: raw.MaxIterations,
		WorkerCount:   raw.WorkerCount,
		SettingsFile:  raw.SettingsFile,
		UserAgent:     raw.UserAgent,
		Timezone:      raw.Timezone,
		Debug:         raw.Debug,
		Version:       GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
