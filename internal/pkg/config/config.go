package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API         APICfg      `yaml:"api" envPrefix:"API_"`
	Push        PushCfg     `yaml:"push" envPrefix:"PUSH_"`
	Board       BoardCfg    `yaml:"board" envPrefix:"BOARD_"`
	Geometry    GeometryCfg `yaml:"geometry" envPrefix:"GEOMETRY_"`
	TelegramCfg TelegramCfg `yaml:"telegram" envPrefix:"TELEGRAM_"`
	DB          DBCfg       `yaml:"db" envPrefix:"DB_"`
	Metrics     MetricsCfg  `yaml:"metrics" envPrefix:"METRICS_"`
	Log         LogCfg      `yaml:"log" envPrefix:"LOG_"`
}

type APICfg struct {
	BaseURL   string        `yaml:"base_url" env:"BASE_URL"`
	Token     string        `yaml:"token" env:"TOKEN"`
	Operator  string        `yaml:"operator" env:"OPERATOR"`
	Timeout   time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RateLimit int           `yaml:"rate_limit" env:"RATE_LIMIT"`
}

type PushCfg struct {
	URL        string        `yaml:"url" env:"URL"`
	MinBackoff time.Duration `yaml:"min_backoff" env:"MIN_BACKOFF"`
	MaxBackoff time.Duration `yaml:"max_backoff" env:"MAX_BACKOFF"`
}

type BoardCfg struct {
	Area           string        `yaml:"area" env:"AREA"`
	ReloadInterval time.Duration `yaml:"reload_interval" env:"RELOAD_INTERVAL"`
}

type GeometryCfg struct {
	DefaultDPI     float64 `yaml:"default_dpi" env:"DEFAULT_DPI"`
	HeadChunkBytes int64   `yaml:"head_chunk_bytes" env:"HEAD_CHUNK_BYTES"`
	TailChunkBytes int64   `yaml:"tail_chunk_bytes" env:"TAIL_CHUNK_BYTES"`
	TailThreshold  int64   `yaml:"tail_threshold" env:"TAIL_THRESHOLD"`
	MaxWidthMeters float64 `yaml:"max_width_meters" env:"MAX_WIDTH_METERS"`
	Concurrency    int     `yaml:"concurrency" env:"CONCURRENCY"`
}

type TelegramCfg struct {
	Token     string  `yaml:"token" env:"TOKEN"`
	Operators []int64 `yaml:"operators" env:"OPERATORS" envSeparator:","`
	DirPath   string  `yaml:"dir_path" env:"DIR_PATH"`
}

type DBCfg struct {
	DSN string `yaml:"dsn" env:"DSN"`
}

type MetricsCfg struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

type LogCfg struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the configuration used for every key the file and the
// environment leave unset.
func Default() Config {
	return Config{
		API: APICfg{
			Timeout:   15 * time.Second,
			RateLimit: 20,
		},
		Push: PushCfg{
			MinBackoff: time.Second,
			MaxBackoff: time.Minute,
		},
		Board: BoardCfg{
			ReloadInterval: 5 * time.Minute,
		},
		Geometry: GeometryCfg{
			DefaultDPI:     300,
			HeadChunkBytes: 500 * 1024,
			TailChunkBytes: 3 * 1024 * 1024,
			TailThreshold:  1024 * 1024,
			Concurrency:    5,
		},
		Log: LogCfg{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (a missing file is not an error), loads an optional .env
// file and applies environment overrides with the RPC_ prefix.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "RPC_"}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.Token == "" {
		errs = append(errs, errors.New("api.token is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	if c.Geometry.DefaultDPI <= 0 {
		errs = append(errs, errors.New("geometry.default_dpi must be positive"))
	}
	if c.Geometry.HeadChunkBytes <= 0 || c.Geometry.TailChunkBytes <= 0 {
		errs = append(errs, errors.New("geometry chunk sizes must be positive"))
	}
	if c.Geometry.Concurrency <= 0 {
		errs = append(errs, errors.New("geometry.concurrency must be positive"))
	}
	if c.Geometry.MaxWidthMeters < 0 {
		errs = append(errs, errors.New("geometry.max_width_meters must not be negative"))
	}
	if c.Push.MinBackoff > c.Push.MaxBackoff {
		errs = append(errs, errors.New("push.min_backoff exceeds push.max_backoff"))
	}
	return errors.Join(errs...)
}
