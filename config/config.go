package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/tazhate/workoutplanner/internal/clients/caldav"
)

const defaultSecretKey = "dev-secret-key-change-in-production"

type Config struct {
	ServerPort    string
	DatabasePath  string
	SecretKey     string
	JWTExpiration time.Duration
	Timezone      *time.Location
	LogLevel      string

	CalDAV       caldav.Credentials
	CalendarName string

	AutoExportCron string
	AutoExportDays int

	TelegramToken  string
	TelegramChatID int64

	WeatherLatitude  float64
	WeatherLongitude float64

	ClubSchedulePath  string
	WeeklyTargetsPath string
}

// Load reads configuration from the environment. CalDAV credentials that are
// not in the environment are looked up in the credentials env-file.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("DATABASE_PATH", "./data/workout_planner.db")
	v.SetDefault("SECRET_KEY", defaultSecretKey)
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("TIMEZONE", "America/Chicago")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CALDAV_URL", caldav.DefaultiCloudURL)
	v.SetDefault("AUTO_EXPORT_DAYS", 7)
	v.SetDefault("WEATHER_LATITUDE", 41.795604164195446)
	v.SetDefault("WEATHER_LONGITUDE", -87.57838836383468)
	v.SetDefault("CLUB_SCHEDULE_PATH", "./data/club_schedule.yaml")
	v.SetDefault("WEEKLY_TARGETS_PATH", "./data/weekly_targets.yaml")
	v.SetDefault("CALDAV_CREDENTIALS_FILE", defaultCredentialsFile())

	tz, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	expiration, err := time.ParseDuration(v.GetString("JWT_EXPIRATION"))
	if err != nil || expiration <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION %q", v.GetString("JWT_EXPIRATION"))
	}

	cfg := &Config{
		ServerPort:        v.GetString("SERVER_PORT"),
		DatabasePath:      v.GetString("DATABASE_PATH"),
		SecretKey:         v.GetString("SECRET_KEY"),
		JWTExpiration:     expiration,
		Timezone:          tz,
		LogLevel:          v.GetString("LOG_LEVEL"),
		AutoExportCron:    v.GetString("AUTO_EXPORT_CRON"),
		AutoExportDays:    v.GetInt("AUTO_EXPORT_DAYS"),
		TelegramToken:     v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:    v.GetInt64("TELEGRAM_CHAT_ID"),
		WeatherLatitude:   v.GetFloat64("WEATHER_LATITUDE"),
		WeatherLongitude:  v.GetFloat64("WEATHER_LONGITUDE"),
		ClubSchedulePath:  v.GetString("CLUB_SCHEDULE_PATH"),
		WeeklyTargetsPath: v.GetString("WEEKLY_TARGETS_PATH"),
	}
	if cfg.AutoExportDays <= 0 {
		cfg.AutoExportDays = 7
	}

	creds, err := loadCalDAV(v)
	if err != nil {
		return nil, err
	}
	cfg.CalDAV = caldav.Credentials{
		URL:      creds.GetString("CALDAV_URL"),
		Username: creds.GetString("CALDAV_USERNAME"),
		Password: creds.GetString("CALDAV_PASSWORD"),
	}
	cfg.CalendarName = creds.GetString("CALDAV_CALENDAR_NAME")

	return cfg, nil
}

// loadCalDAV layers the environment over the credentials file. A missing
// file is not an error; the export endpoints report CalDAV as unconfigured.
func loadCalDAV(env *viper.Viper) (*viper.Viper, error) {
	creds := viper.New()
	creds.SetConfigType("env")
	creds.SetDefault("CALDAV_URL", caldav.DefaultiCloudURL)

	path := env.GetString("CALDAV_CREDENTIALS_FILE")
	if path != "" {
		creds.SetConfigFile(path)
		if err := creds.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
		}
	}

	for _, key := range []string{"CALDAV_URL", "CALDAV_USERNAME", "CALDAV_PASSWORD", "CALDAV_CALENDAR_NAME"} {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			creds.Set(key, val)
		}
	}
	return creds, nil
}

func defaultCredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "workout-planner", "caldav-credentials-apple.env")
}

// CalDAVConfigured returns true if CalDAV credentials were resolved
func (c *Config) CalDAVConfigured() bool {
	return c.CalDAV.IsConfigured()
}

// UsesDefaultSecret reports whether SECRET_KEY was left at its development value.
func (c *Config) UsesDefaultSecret() bool {
	return c.SecretKey == defaultSecretKey
}

// TelegramConfigured returns true if export summaries can be sent
func (c *Config) TelegramConfigured() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
