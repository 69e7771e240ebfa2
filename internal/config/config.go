package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverSupabase = "supabase"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Supabase   SupabaseConfig   `yaml:"supabase"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Auth       AuthConfig       `yaml:"auth"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Booking    BookingConfig    `yaml:"booking"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Events     EventsConfig     `yaml:"events"`
	Google     GoogleConfig     `yaml:"google"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type SupabaseConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// Configured reports whether both credentials are present.
func (c SupabaseConfig) Configured() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.Key) != ""
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CORS      APICORSConfig      `yaml:"cors"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool `yaml:"enabled"`
	Port       int  `yaml:"port"`
	Reflection bool `yaml:"reflection"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type APICORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	BcryptCost    int           `yaml:"bcrypt_cost"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`
	AdminName     string        `yaml:"admin_name"`
	LoginAttempts int           `yaml:"login_attempts"`
	LoginWindow   time.Duration `yaml:"login_window"`
}

type ScheduleConfig struct {
	Timezone     string `yaml:"timezone"`
	DefaultOpen  int    `yaml:"default_open"`
	DefaultClose int    `yaml:"default_close"`
	HolidaysPath string `yaml:"holidays_path"`
}

type BookingConfig struct {
	MaxConsecutiveHours int `yaml:"max_consecutive_hours"`
	MaxRecurrenceWeeks  int `yaml:"max_recurrence_weeks"`
}

type PricingConfig struct {
	CutoffHour     int   `yaml:"cutoff_hour"`
	TariffDay      int64 `yaml:"tariff_day"`
	TariffNight    int64 `yaml:"tariff_night"`
	Weekend        int64 `yaml:"weekend"`
	WeekdayDay     int64 `yaml:"weekday_day"`
	WeekdayNight   int64 `yaml:"weekday_night"`
	UnitPrice      int64 `yaml:"unit_price"`
	HolidayWeekend bool  `yaml:"holiday_as_weekend"`
}

type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// unsetHour marks an hour field the config file left out, so 0 stays a valid value.
const unsetHour = -1

func newConfig() Config {
	return Config{Pricing: PricingConfig{CutoffHour: unsetHour}}
}

func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	config := newConfig()
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate checks structural settings. Missing store credentials and a
// missing JWT secret are reported per request (503) instead of here.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case DriverSupabase:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Schedule.DefaultOpen < 0 || c.Schedule.DefaultClose > 23 {
		return errors.New("schedule hours must be within 0..23")
	}
	if c.Schedule.DefaultClose <= c.Schedule.DefaultOpen {
		return errors.New("schedule default_close must be after default_open")
	}

	if c.Booking.MaxConsecutiveHours < 1 {
		return errors.New("booking.max_consecutive_hours must be positive")
	}
	if c.Booking.MaxRecurrenceWeeks < 1 {
		return errors.New("booking.max_recurrence_weeks must be positive")
	}

	if c.Pricing.CutoffHour < 0 || c.Pricing.CutoffHour > 23 {
		return errors.New("pricing.cutoff_hour must be within 0..23")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "cancha"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = "data/cancha.db"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 10
	}
	if c.Auth.AdminName == "" {
		c.Auth.AdminName = "Administrador"
	}
	if c.Auth.LoginAttempts == 0 {
		c.Auth.LoginAttempts = 5
	}
	if c.Auth.LoginWindow == 0 {
		c.Auth.LoginWindow = 15 * time.Minute
	}

	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "America/Bogota"
	}
	if c.Schedule.DefaultOpen == 0 && c.Schedule.DefaultClose == 0 {
		c.Schedule.DefaultOpen = 8
		c.Schedule.DefaultClose = 21
	}

	if c.Booking.MaxConsecutiveHours == 0 {
		c.Booking.MaxConsecutiveHours = 3
	}
	if c.Booking.MaxRecurrenceWeeks == 0 {
		c.Booking.MaxRecurrenceWeeks = 52
	}

	if c.Pricing.CutoffHour == unsetHour {
		c.Pricing.CutoffHour = 17
	}
	if c.Pricing.TariffDay == 0 {
		c.Pricing.TariffDay = 90000
	}
	if c.Pricing.TariffNight == 0 {
		c.Pricing.TariffNight = 110000
	}
	if c.Pricing.Weekend == 0 {
		c.Pricing.Weekend = 130000
	}
	if c.Pricing.WeekdayDay == 0 {
		c.Pricing.WeekdayDay = 100000
	}
	if c.Pricing.WeekdayNight == 0 {
		c.Pricing.WeekdayNight = 130000
	}
	if c.Pricing.UnitPrice == 0 {
		c.Pricing.UnitPrice = 100000
	}

	if c.Events.Exchange == "" {
		c.Events.Exchange = "cancha.events"
	}
	if c.Google.SheetName == "" {
		c.Google.SheetName = "Reservas"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
}
