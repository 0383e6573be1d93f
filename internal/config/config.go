package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GARDEN_DATABASE_URL.
const EnvPrefix = "GARDEN"

// Config keeps runtime settings for the service.
type Config struct {
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Recurrence RecurrenceConfig `mapstructure:"recurrence"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Log        LogConfig        `mapstructure:"log"`
}

// TelegramConfig configures the bot. An empty token disables it.
type TelegramConfig struct {
	Token      string `mapstructure:"token"`
	RatePerSec int    `mapstructure:"rate_per_sec" validate:"gt=0,lte=30"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// SchedulerConfig drives the daily cycle and digest.
type SchedulerConfig struct {
	CycleTime    string        `mapstructure:"cycle_time" validate:"required"`
	DigestTime   string        `mapstructure:"digest_time"`
	Timezone     string        `mapstructure:"timezone" validate:"required"`
	RunOnStart   bool          `mapstructure:"run_on_start"`
	CycleTimeout time.Duration `mapstructure:"cycle_timeout" validate:"gt=0"`
}

type RecurrenceConfig struct {
	CatchUp   string `mapstructure:"catch_up" validate:"oneof=single all"`
	BatchSize int    `mapstructure:"batch_size" validate:"gt=0"`
	Workers   int    `mapstructure:"workers" validate:"gt=0,lte=64"`
}

// HTTPConfig configures the JSON API. An empty address disables it.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

var defaults = map[string]any{
	"telegram.token":          "",
	"telegram.rate_per_sec":   20,
	"database.url":            "garden_care.db",
	"scheduler.cycle_time":    "06:00",
	"scheduler.digest_time":   "08:00",
	"scheduler.timezone":      "Local",
	"scheduler.run_on_start":  true,
	"scheduler.cycle_timeout": "2m",
	"recurrence.catch_up":     "single",
	"recurrence.batch_size":   200,
	"recurrence.workers":      1,
	"http.addr":               "",
	"log.level":               "info",
	"log.format":              "console",
}

// Load reads configuration from an optional YAML file and GARDEN_* environment
// variables, which take precedence. path may be empty.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	cfg.Database.URL = strings.TrimSpace(cfg.Database.URL)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct constraints and the values that need parsing.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	if _, _, err := ParseClock(c.Scheduler.CycleTime); err != nil {
		return fmt.Errorf("config: scheduler.cycle_time: %w", err)
	}
	if c.Scheduler.DigestTime != "" {
		if _, _, err := ParseClock(c.Scheduler.DigestTime); err != nil {
			return fmt.Errorf("config: scheduler.digest_time: %w", err)
		}
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: scheduler.timezone: %w", err)
	}
	return nil
}

// Location resolves the scheduler timezone.
func (c Config) Location() (*time.Location, error) {
	if strings.EqualFold(c.Scheduler.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Scheduler.Timezone)
}

// ParseClock parses an HH:MM wall clock time.
func ParseClock(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}
