package cfg

import (
	"cmp"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	ConfigPath string `long:"config" env:"CONFIG_PATH" description:"Settings file (default: $XDG_CONFIG_HOME/lostfilm-notifier/config.yml)"`

	// Serve mode
	Serve             bool   `long:"serve" env:"SERVE" description:"Keep running: poll on an interval and serve the status API"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"Status API port in serve mode"`
	SchedulerInterval int    `long:"interval" env:"SCHEDULER_INTERVAL" default:"600" description:"Polling interval in seconds in serve mode"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for /api endpoints (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Europe/Moscow" description:"Timezone for release dates (e.g., UTC, Europe/Moscow)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses process options and the settings file. It returns nil, nil
// when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.SchedulerInterval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %d", raw.SchedulerInterval)
	}

	configPath := raw.ConfigPath
	if configPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate config directory: %w", err)
		}
		configPath = filepath.Join(dir, "lostfilm-notifier", "config.yml")
	}

	settings, err := LoadSettings(configPath)
	if err != nil {
		return nil, err
	}

	feedURL, err := url.JoinPath(settings.Source.BaseURL, settings.Source.FeedPath)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}
	scheduleURL, err := url.JoinPath(settings.Source.BaseURL, settings.Source.SchedulePath)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule URL: %w", err)
	}

	dbPath := settings.Storage.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(filepath.Dir(configPath), dbPath)
	}

	cfg := &Cfg{
		ConfigPath:        configPath,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Serve:             raw.Serve,
		Port:              raw.Port,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		Version:           GetVersion(),
		BotToken:          settings.Telegram.BotToken,
		ChatID:            settings.Telegram.ChatID,
		TelegramEndpoint:  settings.Telegram.APIEndpoint,
		BaseURL:           settings.Source.BaseURL,
		FeedURL:           feedURL,
		ScheduleURL:       scheduleURL,
		Timeout:           time.Duration(settings.Source.Timeout) * time.Second,
		DBPath:            dbPath,
		RetentionDays:     settings.Storage.RetentionDays,
		ScheduleEnabled:   settings.Schedule.Enabled,
	}

	return cfg, nil
}

// Location returns the configured timezone, falling back to UTC.
func (c *Cfg) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
