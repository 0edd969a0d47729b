package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all client configuration
type Config struct {
	App       AppConfig
	API       APIConfig
	Session   SessionConfig
	Redis     RedisConfig
	Log       LogConfig
	Places    PlacesConfig
	Output    OutputConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// APIConfig points the gateway client at the backend
type APIConfig struct {
	BaseURL   string
	UserAgent string
}

// SessionConfig selects where the login session is persisted
type SessionConfig struct {
	Backend string // file, redis, memory
	Path    string // file backend only
	Profile string // names the session; lets one store hold several logins
}

// RedisConfig holds Redis connection settings for the redis session backend
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LogConfig holds logging configuration. Empty fields keep the preset
// chosen by app.env.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// PlacesConfig configures the keyword place search service
type PlacesConfig struct {
	BaseURL string
	APIKey  string
}

// OutputConfig controls command output rendering
type OutputConfig struct {
	Format string // table, json, yaml
}

// TelemetryConfig controls OTLP export of request spans
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	Insecure          bool
}

const (
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest):
// 1. Environment variables with MAPMATE_ prefix (e.g., MAPMATE_API_BASE_URL)
// 2. .env in the working directory (loaded into the environment first)
// 3. mapmate.toml / mapmate.yaml, or the file passed as configFile
// 4. Built-in defaults
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("mapmate")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "mapmate"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("MAPMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("places.api_key", "MAPMATE_PLACES_API_KEY", "KAKAO_REST_API_KEY", "VITE_KAKAO_REST_API_KEY")

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		API: APIConfig{
			BaseURL:   v.GetString("api.base_url"),
			UserAgent: v.GetString("api.user_agent"),
		},
		Session: SessionConfig{
			Backend: v.GetString("session.backend"),
			Path:    v.GetString("session.path"),
			Profile: v.GetString("session.profile"),
		},
		Redis: RedisConfig{
			Host:      v.GetString("redis.host"),
			Port:      v.GetInt("redis.port"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Places: PlacesConfig{
			BaseURL: v.GetString("places.base_url"),
			APIKey:  v.GetString("places.api_key"),
		},
		Output: OutputConfig{
			Format: v.GetString("output.format"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a configuration built from defaults only
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "mapmate"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "cli"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8080"
	}
	if cfg.API.UserAgent == "" {
		cfg.API.UserAgent = "mapmate-cli/1.0"
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = SessionBackendFile
	}
	if cfg.Session.Path == "" {
		cfg.Session.Path = defaultSessionPath()
	}
	if cfg.Session.Profile == "" {
		cfg.Session.Profile = "default"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "mapmate:session:"
	}
	if cfg.Places.BaseURL == "" {
		cfg.Places.BaseURL = "https://dapi.kakao.com"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "table"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "mapmate", "session.json")
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url scheme must be http or https, got %q", u.Scheme)
	}

	switch c.Session.Backend {
	case SessionBackendFile, SessionBackendRedis, SessionBackendMemory:
	default:
		return fmt.Errorf("session.backend must be one of file, redis, memory; got %q", c.Session.Backend)
	}

	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		return fmt.Errorf("redis.port must be between 1 and 65535, got %d", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db cannot be negative")
	}

	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1, got %v", c.Telemetry.SamplingRatio)
	}

	switch c.Output.Format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("output.format must be one of table, json, yaml; got %q", c.Output.Format)
	}

	return nil
}
