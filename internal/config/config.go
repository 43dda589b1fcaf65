package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Open        time.Duration
	Close       time.Duration
	MinDuration time.Duration
	DataFile    string
	AutoLoad    bool
	LogFile     string
	LogLevel    string
}

// Load reads defaults, an optional medscheduler.{yaml,json,toml} in the
// working directory, and MEDSCHED_* environment variables, in increasing
// precedence.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MEDSCHED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("schedule.open", "08:00")
	v.SetDefault("schedule.close", "17:00")
	v.SetDefault("schedule.min_duration", "15m")
	v.SetDefault("data.file", "appointments.txt")
	v.SetDefault("data.autoload", false)
	v.SetDefault("log.file", "scheduler.log")
	v.SetDefault("log.level", "info")

	_ = v.BindEnv("schedule.open", "MEDSCHED_SCHEDULE_OPEN", "CLINIC_OPEN")
	_ = v.BindEnv("schedule.close", "MEDSCHED_SCHEDULE_CLOSE", "CLINIC_CLOSE")
	_ = v.BindEnv("schedule.min_duration", "MEDSCHED_SCHEDULE_MIN_DURATION")
	_ = v.BindEnv("data.file", "MEDSCHED_DATA_FILE")
	_ = v.BindEnv("data.autoload", "MEDSCHED_DATA_AUTOLOAD")
	_ = v.BindEnv("log.file", "MEDSCHED_LOG_FILE")
	_ = v.BindEnv("log.level", "MEDSCHED_LOG_LEVEL", "LOG_LEVEL")

	v.SetConfigName("medscheduler")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	open, err := parseClock(v.GetString("schedule.open"))
	if err != nil {
		return Config{}, fmt.Errorf("schedule.open: %w", err)
	}
	closeAt, err := parseClock(v.GetString("schedule.close"))
	if err != nil {
		return Config{}, fmt.Errorf("schedule.close: %w", err)
	}
	if closeAt <= open {
		return Config{}, fmt.Errorf("schedule.close %s must be after schedule.open %s",
			v.GetString("schedule.close"), v.GetString("schedule.open"))
	}

	minDuration, err := time.ParseDuration(v.GetString("schedule.min_duration"))
	if err != nil {
		return Config{}, fmt.Errorf("schedule.min_duration: %w", err)
	}
	if minDuration <= 0 {
		return Config{}, fmt.Errorf("schedule.min_duration must be positive, got %s", minDuration)
	}

	dataFile := strings.TrimSpace(v.GetString("data.file"))
	if dataFile == "" {
		return Config{}, errors.New("data.file must not be empty")
	}
	logFile := strings.TrimSpace(v.GetString("log.file"))
	if logFile == "" {
		return Config{}, errors.New("log.file must not be empty")
	}

	return Config{
		Open:        open,
		Close:       closeAt,
		MinDuration: minDuration,
		DataFile:    dataFile,
		AutoLoad:    v.GetBool("data.autoload"),
		LogFile:     logFile,
		LogLevel:    v.GetString("log.level"),
	}, nil
}

// parseClock turns "HH:MM" into an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
