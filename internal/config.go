package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
)

type Config struct {
	Env           string              `mapstructure:"env" env:"APP_ENV" envDefault:"development"`
	Server        ServerConfig        `mapstructure:"http_server" envPrefix:"HTTP_SERVER_"`
	Database      DatabaseConfig      `mapstructure:"database" envPrefix:"DATABASE_"`
	Security      SecurityConfig      `mapstructure:"security" envPrefix:"SECURITY_"`
	Observability ObservabilityConfig `mapstructure:"observability" envPrefix:"OBSERVABILITY_"`
	Events        EventsConfig        `mapstructure:"events" envPrefix:"EVENTS_"`
	Client        ClientConfig        `mapstructure:"client" envPrefix:"CLIENT_"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" env:"PORT" envDefault:"8080"`
	BaseURL           string        `mapstructure:"base_url" env:"BASE_URL"`
	AllowedOrigins    string        `mapstructure:"allowed_origins" env:"ALLOWED_ORIGINS"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" env:"READ_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" env:"IDLE_TIMEOUT" envDefault:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" env:"WRITE_TIMEOUT" envDefault:"15s"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" env:"DRIVER" envDefault:"postgres"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME" envDefault:"5m"`
	Source          string        `mapstructure:"source" env:"SOURCE"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret" env:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret" env:"REFRESH_TOKEN_SECRET"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" env:"ACCESS_TOKEN_DURATION" envDefault:"15m"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" env:"REFRESH_TOKEN_DURATION" envDefault:"168h"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" env:"BCRYPT_COST" envDefault:"10"`
	MinPasswordLength    int           `mapstructure:"min_password_length" env:"MIN_PASSWORD_LENGTH" envDefault:"6"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics" envPrefix:"METRICS_"`
	Tracing TracingConfig `mapstructure:"tracing" envPrefix:"TRACING_"`
	Logging LoggingConfig `mapstructure:"logging" envPrefix:"LOGGING_"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" env:"ENABLED"`
	Path    string `mapstructure:"path" env:"PATH" envDefault:"/metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled" env:"ENABLED"`
	ServiceName  string  `mapstructure:"service_name" env:"SERVICE_NAME" envDefault:"expense-tracker"`
	SamplingRate float64 `mapstructure:"sampling_rate" env:"SAMPLING_RATE" envDefault:"1"`
	JaegerURL    string  `mapstructure:"jaeger_url" env:"JAEGER_URL"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" env:"LEVEL" envDefault:"info"`
	Format string `mapstructure:"format" env:"FORMAT" envDefault:"text"`
}

type EventsConfig struct {
	AMQPURL  string `mapstructure:"amqp_url" env:"AMQP_URL"`
	Exchange string `mapstructure:"exchange" env:"EXCHANGE" envDefault:"expense-tracker"`
	Queue    string `mapstructure:"queue" env:"QUEUE" envDefault:"expense_audit"`
}

// Enabled reports whether expense events are forwarded to a broker.
func (c EventsConfig) Enabled() bool {
	return c.AMQPURL != ""
}

type ClientConfig struct {
	BaseURL         string        `mapstructure:"base_url" env:"BASE_URL" envDefault:"http://localhost:8080/api/v1"`
	CredentialsFile string        `mapstructure:"credentials_file" env:"CREDENTIALS_FILE"`
	Timeout         time.Duration `mapstructure:"timeout" env:"TIMEOUT" envDefault:"10s"`
}

// LoadConfigFromEnv builds the configuration from environment variables,
// loading a .env file first when one is present.
func LoadConfigFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// ----------------- DEFAULTS -----------------

// DefaultCredentialsFile is where the tracker keeps its refresh token when
// client.credentials_file is not set.
func DefaultCredentialsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "expense-tracker", "credentials.json")
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("observability config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Driver != "postgres" && c.Driver != "sqlite" {
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access token secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh token secret must be at least 32 characters")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if c.AccessTokenDuration <= 0 || c.RefreshTokenDuration <= c.AccessTokenDuration {
		return errors.New("refresh_token_duration must be longer than access_token_duration")
	}
	if c.BCryptCost < 4 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 4 and 15")
	}
	if c.MinPasswordLength < 1 {
		return errors.New("min_password_length must be positive")
	}
	return nil
}

func (c *ObservabilityConfig) Validate() error {
	if c.Tracing.Enabled {
		if c.Tracing.ServiceName == "" {
			return errors.New("tracing.service_name is required when tracing is enabled")
		}
		if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
			return errors.New("tracing.sampling_rate must be between 0 and 1")
		}
		if _, err := url.ParseRequestURI(c.Tracing.JaegerURL); err != nil {
			return fmt.Errorf("tracing.jaeger_url: %w", err)
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level %q", c.Logging.Level)
	}
	return nil
}
