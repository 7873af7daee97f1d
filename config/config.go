package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	APITokenHash      string `mapstructure:"API_TOKEN_HASH"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisSweepDB   int    `mapstructure:"REDIS_SWEEP_DB"`

	// Calendar collaborator.
	CalendarID             string `mapstructure:"CALENDAR_ID"`
	CalendarTimeoutSeconds int    `mapstructure:"CALENDAR_TIMEOUT_SECONDS"`

	// Dialogue engine.
	ConfidenceThreshold   float64 `mapstructure:"CONFIDENCE_THRESHOLD"`
	SessionTimeoutMinutes int     `mapstructure:"SESSION_TIMEOUT_MINUTES"`
	SessionMaxHistory     int     `mapstructure:"SESSION_MAX_HISTORY"`
	BusinessStartHour     int     `mapstructure:"BUSINESS_START_HOUR"`
	BusinessEndHour       int     `mapstructure:"BUSINESS_END_HOUR"`
	ScanWindowDays        int     `mapstructure:"SCAN_WINDOW_DAYS"`
	MaxProposals          int     `mapstructure:"MAX_PROPOSALS"`
	DefaultDurationMin    int     `mapstructure:"DEFAULT_DURATION_MIN"`
	Timezone              string  `mapstructure:"TIMEZONE"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_SWEEP_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("CALENDAR_ID", "primary")
	viper.SetDefault("CALENDAR_TIMEOUT_SECONDS", 10)
	viper.SetDefault("CONFIDENCE_THRESHOLD", 0.6)
	viper.SetDefault("SESSION_TIMEOUT_MINUTES", 30)
	viper.SetDefault("SESSION_MAX_HISTORY", 40)
	viper.SetDefault("BUSINESS_START_HOUR", 9)
	viper.SetDefault("BUSINESS_END_HOUR", 17)
	viper.SetDefault("SCAN_WINDOW_DAYS", 7)
	viper.SetDefault("MAX_PROPOSALS", 3)
	viper.SetDefault("DEFAULT_DURATION_MIN", 60)
	viper.SetDefault("TIMEZONE", "UTC")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// CalendarTimeout returns the bounded timeout for calendar collaborator calls.
func CalendarTimeout() time.Duration {
	return time.Duration(AppConfig.CalendarTimeoutSeconds) * time.Second
}

// SessionTimeout returns the inactivity window after which sessions expire.
func SessionTimeout() time.Duration {
	return time.Duration(AppConfig.SessionTimeoutMinutes) * time.Minute
}

// Location resolves the configured timezone, falling back to UTC.
func Location() *time.Location {
	loc, err := time.LoadLocation(AppConfig.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
