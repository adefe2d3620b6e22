package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

var (
	ErrEmptyBotToken   = errors.New("telegram bot token is required")
	ErrEmptyOwnerChat  = errors.New("telegram owner chat id is required")
	ErrEmptyDBPassword = errors.New("database password is required")
	ErrUnknownBackend  = errors.New("unknown favorites backend")
)

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendValkey   = "valkey"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	App       AppConfig       `yaml:"app" toml:"app" env-prefix:"APP_"`
	API       APIConfig       `yaml:"api" toml:"api" env-prefix:"API_"`
	Favorites FavoritesConfig `yaml:"favorites" toml:"favorites" env-prefix:"FAVORITES_"`
	Database  DatabaseConfig  `yaml:"database" toml:"database" env-prefix:"DB_"`
	Valkey    ValkeyConfig    `yaml:"valkey" toml:"valkey" env-prefix:"VALKEY_"`
	DynamoDB  DynamoDBConfig  `yaml:"dynamodb" toml:"dynamodb" env-prefix:"DYNAMODB_"`
	NATS      NATSConfig      `yaml:"nats" toml:"nats" env-prefix:"NATS_"`
	Bot       BotConfig       `yaml:"bot" toml:"bot" env-prefix:"BOT_"`
	Health    HealthConfig    `yaml:"health" toml:"health" env-prefix:"HEALTH_"`
}

type AppConfig struct {
	Name        string `yaml:"name" toml:"name" env:"NAME" env-default:"daily-joke"`
	Environment string `yaml:"environment" toml:"environment" env:"ENVIRONMENT" env-default:"production"`
	LogLevel    string `yaml:"log_level" toml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat   string `yaml:"log_format" toml:"log_format" env:"LOG_FORMAT" env-default:"text"`
}

type APIConfig struct {
	BaseURL   string        `yaml:"base_url" toml:"base_url" env:"BASE_URL" env-default:"https://v2.jokeapi.dev"`
	Type      string        `yaml:"type" toml:"type" env:"TYPE" env-default:"twopart"`
	SafeMode  bool          `yaml:"safe_mode" toml:"safe_mode" env:"SAFE_MODE" env-default:"true"`
	Lang      string        `yaml:"lang" toml:"lang" env:"LANG" env-default:"en"`
	Timeout   time.Duration `yaml:"timeout" toml:"timeout" env:"TIMEOUT" env-default:"30s"`
	UserAgent string        `yaml:"user_agent" toml:"user_agent" env:"USER_AGENT" env-default:"daily-joke/1.0"`
}

type FavoritesConfig struct {
	Backend string `yaml:"backend" toml:"backend" env:"BACKEND" env-default:"file"`
	// Path is used by the file and sqlite backends. Empty means the XDG data dir.
	Path string `yaml:"path" toml:"path" env:"PATH"`
	Key  string `yaml:"key" toml:"key" env:"KEY" env-default:"favorite_jokes"`
}

// ResolvedPath returns Path or the backend specific default under the XDG data dir.
func (f FavoritesConfig) ResolvedPath() string {
	if f.Path != "" {
		return f.Path
	}
	if f.Backend == BackendSQLite {
		return filepath.Join(DataDir(), "favorites.db")
	}
	return filepath.Join(DataDir(), "favorites.json")
}

type DatabaseConfig struct {
	Host           string `yaml:"host" toml:"host" env:"HOST" env-default:"localhost"`
	Port           int    `yaml:"port" toml:"port" env:"PORT" env-default:"5432"`
	User           string `yaml:"user" toml:"user" env:"USER" env-default:"dailyjoke"`
	Password       string `yaml:"password" toml:"password" env:"PASSWORD"`
	Name           string `yaml:"name" toml:"name" env:"NAME" env-default:"dailyjoke"`
	MaxConnections int    `yaml:"max_connections" toml:"max_connections" env:"MAX_CONNECTIONS" env-default:"4"`
	MinConnections int    `yaml:"min_connections" toml:"min_connections" env:"MIN_CONNECTIONS" env-default:"1"`
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

type ValkeyConfig struct {
	Addr     string `yaml:"addr" toml:"addr" env:"ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" toml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" toml:"db" env:"DB" env-default:"0"`
	Prefix   string `yaml:"prefix" toml:"prefix" env:"PREFIX" env-default:"dailyjoke"`
}

type DynamoDBConfig struct {
	Region string `yaml:"region" toml:"region" env:"REGION" env-default:"us-east-1"`
	Table  string `yaml:"table" toml:"table" env:"TABLE" env-default:"daily-joke-preferences"`
}

type NATSConfig struct {
	Enabled    bool   `yaml:"enabled" toml:"enabled" env:"ENABLED" env-default:"false"`
	URL        string `yaml:"url" toml:"url" env:"URL" env-default:"nats://localhost:4222"`
	StreamName string `yaml:"stream_name" toml:"stream_name" env:"STREAM_NAME" env-default:"DAILYJOKE"`
}

type BotConfig struct {
	Token       string        `yaml:"token" toml:"token" env:"TOKEN"`
	OwnerChatID int64         `yaml:"owner_chat_id" toml:"owner_chat_id" env:"OWNER_CHAT_ID"`
	ParseMode   string        `yaml:"parse_mode" toml:"parse_mode" env:"PARSE_MODE" env-default:"Markdown"`
	PollTimeout time.Duration `yaml:"poll_timeout" toml:"poll_timeout" env:"POLL_TIMEOUT" env-default:"10s"`
}

func (b BotConfig) Validate() error {
	if b.Token == "" {
		return ErrEmptyBotToken
	}
	if b.OwnerChatID == 0 {
		return ErrEmptyOwnerChat
	}
	return nil
}

type HealthConfig struct {
	Port     int    `yaml:"port" toml:"port" env:"PORT" env-default:"8080"`
	Endpoint string `yaml:"endpoint" toml:"endpoint" env:"ENDPOINT" env-default:"/healthz"`
}

// Load reads CONFIG_PATH (or the default path) and applies environment overrides.
// A missing file is not an error: defaults and env still apply.
func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	return LoadFile(configPath)
}

func LoadFile(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase returns only the database section. The favorites backend is
// not validated, so migrations can run before the app switches to postgres.
func LoadDatabase() (DatabaseConfig, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	cfg, err := read(configPath)
	if err != nil {
		return DatabaseConfig{}, err
	}
	return cfg.Database, nil
}

func read(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from %s: %w", path, err)
		}
	} else if os.IsNotExist(err) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Favorites.Backend = strings.ToLower(strings.TrimSpace(c.Favorites.Backend))
	switch c.Favorites.Backend {
	case BackendFile, BackendSQLite, BackendValkey, BackendDynamoDB:
	case BackendPostgres:
		if c.Database.Password == "" {
			return ErrEmptyDBPassword
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Favorites.Backend)
	}
	return nil
}

func xdgDir(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

func DataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "dailyjoke")
}

func DefaultConfigPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "dailyjoke", "config.yaml")
}

func DefaultLogPath() string {
	return filepath.Join(DataDir(), "dailyjoke.log")
}
