package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/sbowman/dotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Environment variables overriding the postgres section.
const (
	envPostgresUser     = "SHORTURL_POSTGRES_USER"
	envPostgresPassword = "SHORTURL_POSTGRES_PASSWORD"
	envPostgresHost     = "SHORTURL_POSTGRES_HOST"
	envPostgresPort     = "SHORTURL_POSTGRES_PORT"
	envPostgresDB       = "SHORTURL_POSTGRES_DATABASE"
	envPostgresSSLMode  = "SHORTURL_POSTGRES_SSLMODE"
)

const maxShortCodeLength = 32

var (
	ErrInvalidShortCodeLength = errors.New("short code length must be between 1 and 32")
	ErrInvalidMaxAttempts     = errors.New("max attempts must be positive")
	ErrInvalidSaltLength      = errors.New("salt length must be positive")
)

type Config struct {
	Env        string `yaml:"env"`
	LogLevel   string `yaml:"log_level"`
	ShortCode  `yaml:"short_code"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
}

// Level returns the slog level named by LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type ShortCode struct {
	Length      int `yaml:"length"`
	MaxAttempts int `yaml:"max_attempts"`
	SaltLength  int `yaml:"salt_length"`
}

var defaultShortCode = ShortCode{
	Length:      6,
	MaxAttempts: 10,
	SaltLength:  8,
}

func (s *ShortCode) validate() error {
	switch {
	case s.Length < 1 || s.Length > maxShortCodeLength:
		return ErrInvalidShortCodeLength
	case s.MaxAttempts < 1:
		return ErrInvalidMaxAttempts
	case s.SaltLength < 1:
		return ErrInvalidSaltLength
	}
	return nil
}

type HTTPServer struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes"`
	CertFile        string        `yaml:"cert_file"`
	KeyFile         string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:            8080,
	ReadTimeout:     5 * time.Second,
	WriteTimeout:    10 * time.Second,
	IdleTimeout:     time.Minute,
	ShutdownTimeout: 10 * time.Second,
	MaxHeaderBytes:  1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

// DSN returns the connection URL with credentials escaped.
func (p *Postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.DB,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	return u.String()
}

// Load reads the YAML config at path over the defaults, then applies SHORTURL_POSTGRES_*
// overrides from the environment or a .env file. An empty path skips the file.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	// A missing .env is fine; a malformed one stops dotenv partway through the file.
	if err := dotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: failed to load .env: %w", op, err)
	}

	if err := applyEnv(&cfg, dotenv.GetString); err != nil {
		return nil, fmt.Errorf("%s: failed to apply environment: %w", op, err)
	}

	if err := cfg.ShortCode.validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid short code config: %w", op, err)
	}

	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	return nil
}

// applyEnv overrides postgres settings with the non-empty values returned by getenv.
func applyEnv(cfg *Config, getenv func(string) string) error {
	for key, dst := range map[string]*string{
		envPostgresUser:     &cfg.Postgres.User,
		envPostgresPassword: &cfg.Postgres.Password,
		envPostgresHost:     &cfg.Postgres.Host,
		envPostgresDB:       &cfg.Postgres.DB,
		envPostgresSSLMode:  &cfg.Postgres.SSLMode,
	} {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	if v := getenv(envPostgresPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envPostgresPort, err)
		}
		cfg.Postgres.Port = port
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.LogLevel = "info"
	cfg.ShortCode = defaultShortCode
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
}
