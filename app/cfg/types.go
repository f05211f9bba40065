package cfg

import "time"

type Cfg struct {
	// Process options
	ConfigPath        string
	UserAgent         string
	Timezone          string
	Debug             bool
	Serve             bool
	Port              string
	SchedulerInterval int
	APIAccessKey      string
	Version           string

	// Telegram
	BotToken         string
	ChatID           int64
	TelegramEndpoint string

	// Source site
	BaseURL     string
	FeedURL     string
	ScheduleURL string
	Timeout     time.Duration

	// Storage
	DBPath        string
	RetentionDays int

	ScheduleEnabled bool
}

// Settings is the YAML settings file.
type Settings struct {
	Telegram TelegramSettings `yaml:"telegram"`
	Source   SourceSettings   `yaml:"source"`
	Storage  StorageSettings  `yaml:"storage"`
	Schedule ScheduleSettings `yaml:"schedule"`
}

type TelegramSettings struct {
	BotToken    string `yaml:"bot_token"`
	ChatID      int64  `yaml:"chat_id"`
	APIEndpoint string `yaml:"api_endpoint,omitempty"`
}

type SourceSettings struct {
	BaseURL      string `yaml:"base_url"`
	FeedPath     string `yaml:"feed_path"`
	SchedulePath string `yaml:"schedule_path"`
	Timeout      int    `yaml:"timeout"` // seconds
}

type StorageSettings struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type ScheduleSettings struct {
	Enabled bool `yaml:"enabled"`
}
