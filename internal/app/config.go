package app

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type Config struct {
	Server struct {
		Port       string `toml:"port" validate:"required"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL         string `toml:"redis_url"`
		TokenHeader      string `toml:"token_header"`
		TokenKeyTemplate string `toml:"token_key_template"`
	} `toml:"auth"`

	API struct {
		UserIDHeader    string         `toml:"user_id_header"`
		RequiredHeaders []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Database struct {
		DSN           string `toml:"dsn" validate:"required"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Scoring struct {
		MinPointsDivisor int  `toml:"min_points_divisor" validate:"min=2"`
		HalfPointsCount  int  `toml:"half_points_count" validate:"min=2"`
		PassAsGroup      bool `toml:"pass_as_group"`
		ExcludeStaff     bool `toml:"exclude_staff"`
	} `toml:"scoring"`

	Scoreboard struct {
		EntryCount   int    `toml:"entry_count" validate:"min=3"`
		CacheSeconds int    `toml:"cache_seconds" validate:"min=0"`
		CacheBackend string `toml:"cache_backend" validate:"oneof=memory redis"`
		RedisURL     string `toml:"redis_url" validate:"required_if=CacheBackend redis"`
		KeyPrefix    string `toml:"key_prefix"`
	} `toml:"scoreboard"`

	RateLimit struct {
		FlagSubmitsPerMinute int `toml:"flag_submits_per_minute" validate:"min=0"`
		Burst                int `toml:"burst" validate:"min=0"`
	} `toml:"ratelimit"`
}

func defaultConfig() Config {
	var config Config
	config.Auth.TokenHeader = "Authorization"
	config.Auth.TokenKeyTemplate = "auth:{user}"
	config.API.UserIDHeader = "X-User-Id"
	config.Database.MigrationsDir = "./migrations"
	config.Scoring.MinPointsDivisor = 4
	config.Scoring.HalfPointsCount = 10
	config.Scoring.ExcludeStaff = true
	config.Scoreboard.EntryCount = 10
	config.Scoreboard.CacheSeconds = 30
	config.Scoreboard.CacheBackend = CacheBackendMemory
	config.Scoreboard.KeyPrefix = "labscore"
	config.RateLimit.FlagSubmitsPerMinute = 10
	config.RateLimit.Burst = 5
	return config
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s\n> Error: %w", path, err)
	}

	logger.Debug.Printf("Loaded scoring config: %+v", config.Scoring)
	logger.Debug.Printf("Loaded scoreboard config: %+v", config.Scoreboard)

	return config, nil
}

// ParseConfig decodes TOML on top of the defaults, applies environment
// overrides and rejects values the scoring engine cannot work with.
func ParseConfig(data []byte) (*Config, error) {
	config := defaultConfig()
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if dsn := os.Getenv("LABSCORE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}
	if url := os.Getenv("LABSCORE_REDIS_URL"); url != "" {
		config.Auth.RedisURL = url
		config.Scoreboard.RedisURL = url
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Server.EnableAuth && c.Auth.RedisURL == "" {
		return fmt.Errorf("invalid config: auth.redis_url is required when server.enable_auth is set")
	}
	return nil
}
