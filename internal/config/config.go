package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	// Server
	HTTPAddr string `env:"HTTP_ADDR" default:":8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"json"`

	// Lobby
	QueueCapacity      int           `env:"QUEUE_CAPACITY" default:"20"`
	ClientOutbox       int           `env:"CLIENT_OUTBOX" default:"16"`
	WriteTimeout       time.Duration `env:"WRITE_TIMEOUT" default:"3s"`
	ReadLimit          int64         `env:"READ_LIMIT" default:"4096"`
	ForwardIncludeType bool          `env:"FORWARD_INCLUDE_TYPE" default:"false"`

	// Power
	SampleInterval    time.Duration `env:"SAMPLE_INTERVAL" default:"5s"`
	ShutdownHold      time.Duration `env:"SHUTDOWN_HOLD" default:"2s"`
	LowBatteryPercent int           `env:"LOW_BATTERY_PERCENT" default:"20"`
	ADCMax            int           `env:"ADC_MAX" default:"4095"`
	ADCRefMilliV      int           `env:"ADC_REF_MV" default:"3100"`
	DividerMilli      int           `env:"DIVIDER_MILLI" default:"2000"`
	BatteryEmptyMV    int           `env:"BATTERY_EMPTY_MV" default:"3000"`
	BatteryFullMV     int           `env:"BATTERY_FULL_MV" default:"4200"`

	// Host simulator
	SimBatteryRaw  int  `env:"SIM_BATTERY_RAW" default:"2600"`
	SimCharging    bool `env:"SIM_CHARGING" default:"false"`
	DebugEndpoints bool `env:"DEBUG_ENDPOINTS" default:"false"`
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() (*Config, error) {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load(".env")

	c := &Config{}
	err := multierr.Combine(
		loadEnvString(&c.HTTPAddr, "HTTP_ADDR", ":8080"),
		loadEnvString(&c.LogLevel, "LOG_LEVEL", "info"),
		loadEnvString(&c.LogFormat, "LOG_FORMAT", "json"),

		loadEnvInt(&c.QueueCapacity, "QUEUE_CAPACITY", 20),
		loadEnvInt(&c.ClientOutbox, "CLIENT_OUTBOX", 16),
		loadEnvDuration(&c.WriteTimeout, "WRITE_TIMEOUT", 3*time.Second),
		loadEnvInt64(&c.ReadLimit, "READ_LIMIT", 4096),
		loadEnvBool(&c.ForwardIncludeType, "FORWARD_INCLUDE_TYPE", false),

		loadEnvDuration(&c.SampleInterval, "SAMPLE_INTERVAL", 5*time.Second),
		loadEnvDuration(&c.ShutdownHold, "SHUTDOWN_HOLD", 2*time.Second),
		loadEnvInt(&c.LowBatteryPercent, "LOW_BATTERY_PERCENT", 20),
		loadEnvInt(&c.ADCMax, "ADC_MAX", 4095),
		loadEnvInt(&c.ADCRefMilliV, "ADC_REF_MV", 3100),
		loadEnvInt(&c.DividerMilli, "DIVIDER_MILLI", 2000),
		loadEnvInt(&c.BatteryEmptyMV, "BATTERY_EMPTY_MV", 3000),
		loadEnvInt(&c.BatteryFullMV, "BATTERY_FULL_MV", 4200),

		loadEnvInt(&c.SimBatteryRaw, "SIM_BATTERY_RAW", 2600),
		loadEnvBool(&c.SimCharging, "SIM_CHARGING", false),
		loadEnvBool(&c.DebugEndpoints, "DEBUG_ENDPOINTS", false),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Helper functions for type conversion
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt64(target *int64, key string, defaultValue int64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvBool(target *bool, key string, defaultValue bool) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf(format, args...))
		}
	}

	check(c.HTTPAddr != "", "HTTP_ADDR must not be empty")
	check(contains([]string{"debug", "info", "warn", "error"}, c.LogLevel),
		"LOG_LEVEL must be one of debug, info, warn, error")
	check(contains([]string{"json", "console"}, c.LogFormat), "LOG_FORMAT must be json or console")

	check(c.QueueCapacity > 0, "QUEUE_CAPACITY must be positive")
	check(c.ClientOutbox > 0, "CLIENT_OUTBOX must be positive")
	check(c.WriteTimeout > 0, "WRITE_TIMEOUT must be positive")
	check(c.ReadLimit > 0, "READ_LIMIT must be positive")

	check(c.SampleInterval > 0, "SAMPLE_INTERVAL must be positive")
	check(c.ShutdownHold >= 0, "SHUTDOWN_HOLD must not be negative")
	check(c.LowBatteryPercent >= 0 && c.LowBatteryPercent <= 100, "LOW_BATTERY_PERCENT must be within 0-100")
	check(c.ADCMax > 0 && c.ADCMax <= 0xFFFF, "ADC_MAX must be within 1-65535")
	check(c.ADCRefMilliV > 0 && c.ADCRefMilliV <= 10000, "ADC_REF_MV must be within 1-10000")
	check(c.DividerMilli > 0 && c.DividerMilli <= 100000, "DIVIDER_MILLI must be within 1-100000")
	check(c.BatteryEmptyMV >= 0 && c.BatteryEmptyMV < c.BatteryFullMV,
		"BATTERY_EMPTY_MV must be below BATTERY_FULL_MV")
	check(c.BatteryFullMV <= 0xFFFF, "BATTERY_FULL_MV must be at most 65535")
	check(c.SimBatteryRaw >= 0 && c.SimBatteryRaw <= 0xFFFF, "SIM_BATTERY_RAW must be within 0-65535")

	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
