package cfg

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigMissing means the operator still has to fill in the settings file.
var ErrConfigMissing = errors.New("configuration missing")

func DefaultSettings() Settings {
	return Settings{
		Source: SourceSettings{
			BaseURL:      "https://www.lostfilm.tv/",
			FeedPath:     "rss.xml",
			SchedulePath: "schedule/type_0",
			Timeout:      30,
		},
		Storage: StorageSettings{
			Path:          "entries.db",
			RetentionDays: 90,
		},
		Schedule: ScheduleSettings{
			Enabled: true,
		},
	}
}

// LoadSettings reads the settings file. A missing file is created with
// defaults and reported as ErrConfigMissing, as is a file whose credentials
// were never filled in.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := writeDefaults(path); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: created %s, fill in the telegram settings and run again", ErrConfigMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if settings.Telegram.BotToken == "" || settings.Telegram.ChatID == 0 {
		return nil, fmt.Errorf("%w: telegram bot_token and chat_id are required in %s", ErrConfigMissing, path)
	}

	if err := validateSettings(&settings); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", path, err)
	}

	return &settings, nil
}

func writeDefaults(path string) error {
	data, err := yaml.Marshal(DefaultSettings())
	if err != nil {
		return fmt.Errorf("failed to encode default settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write default settings: %w", err)
	}

	return nil
}

func validateSettings(s *Settings) error {
	base, err := url.Parse(s.Source.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("source base_url must be an absolute URL, got %q", s.Source.BaseURL)
	}

	requiredFields := map[string]string{
		"source feed_path":     s.Source.FeedPath,
		"source schedule_path": s.Source.SchedulePath,
		"storage path":         s.Storage.Path,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	positiveFields := map[string]int{
		"source timeout":         s.Source.Timeout,
		"storage retention_days": s.Storage.RetentionDays,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	return nil
}
