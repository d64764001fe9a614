package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "config.ini"

// DefaultReminder is the lead time used when none is configured.
const DefaultReminder = 10

// Config holds the user settings for a run.
type Config struct {
	Location        string
	ReminderMinutes []int
	Sound           bool
	GeocodeAPIKey   string

	// Path is the file the settings were read from; empty when defaults
	// were used.
	Path string
}

// Load reads the INI file at path. A missing file falls back to defaults;
// environment variables prefixed with PRAYERWATCH_ override either.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	v.SetConfigType("ini")
	v.SetDefault("location.location", "auto")
	v.SetDefault("notification.reminder_time", strconv.Itoa(DefaultReminder))
	v.SetDefault("notification.sound", true)
	v.SetDefault("geocode.api_key", "")

	bindings := map[string]string{
		"location.location":          "PRAYERWATCH_LOCATION",
		"notification.reminder_time": "PRAYERWATCH_REMINDER_TIME",
		"notification.sound":         "PRAYERWATCH_SOUND",
		"geocode.api_key":            "PRAYERWATCH_GEOCODE_API_KEY",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	_, err := os.Stat(path)
	switch {
	case err == nil:
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		cfg.Path = path
		log.Info().Str("path", path).Msg("Config set")
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", path).Msg("Config file not found, run app using default configuration")
	default:
		return Config{}, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg.Location = strings.TrimSpace(v.GetString("location.location"))
	cfg.Sound = v.GetBool("notification.sound")
	cfg.GeocodeAPIKey = strings.TrimSpace(v.GetString("geocode.api_key"))

	reminders, invalid := ParseReminders(v.GetString("notification.reminder_time"))
	for _, entry := range invalid {
		log.Warn().Str("entry", entry).Msg("ignoring invalid reminder_time entry")
	}
	cfg.ReminderMinutes = reminders

	return cfg, nil
}

// LoadDotEnv loads variables from a .env file without overriding ones that
// are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ParseReminders parses a comma separated list of lead minutes. The result is
// de-duplicated and sorted largest first; entries that are not positive
// integers are returned separately.
func ParseReminders(raw string) (minutes []int, invalid []string) {
	minutes = []int{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			invalid = append(invalid, part)
			continue
		}
		if !slices.Contains(minutes, n) {
			minutes = append(minutes, n)
		}
	}
	slices.Sort(minutes)
	slices.Reverse(minutes)
	return minutes, invalid
}
