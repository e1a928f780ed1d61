// Package config loads the service configuration. Values are layered in
// this order, later layers winning: built-in defaults, an optional YAML
// file, CONTACTAUTH_ environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	contactAuth "github.com/MrEthical07/contactAuth"
)

// EnvPrefix marks environment variables read by Load. A double underscore
// separates nesting levels: CONTACTAUTH_AUTH__JWT__ACCESS_TTL=10m.
const EnvPrefix = "CONTACTAUTH_"

type AppConfig struct {
	Auth     contactAuth.Config `koanf:"auth"`
	Keys     KeysConfig         `koanf:"keys"`
	HTTP     HTTPConfig         `koanf:"http"`
	Postgres PostgresConfig     `koanf:"postgres"`
	Redis    RedisConfig        `koanf:"redis"`
	SMTP     SMTPConfig         `koanf:"smtp"`
	S3       S3Config           `koanf:"s3"`
	Log      LogConfig          `koanf:"log"`
}

// KeysConfig locates token signing material. Secret is used for hs256; the
// key files hold PEM or raw ed25519 keys.
type KeysConfig struct {
	Secret         string `koanf:"secret"`
	PrivateKeyFile string `koanf:"private_key_file"`
	PublicKeyFile  string `koanf:"public_key_file"`
}

type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// PublicURL prefixes confirmation links in verification emails.
	PublicURL string `koanf:"public_url"`
	// RequestsPerSecond and Burst size the per-IP request limiter. Zero
	// disables it.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
	TrustProxy        bool    `koanf:"trust_proxy"`
}

// PostgresConfig selects the principal store. An empty DSN runs on the
// in-memory store.
type PostgresConfig struct {
	DSN            string `koanf:"dsn"`
	MaxConns       int32  `koanf:"max_conns"`
	MigrateOnStart bool   `koanf:"migrate_on_start"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// SMTPConfig configures verification mail. An empty Host disables sending.
type SMTPConfig struct {
	Host     string        `koanf:"host"`
	Port     int           `koanf:"port"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	From     string        `koanf:"from"`
	FromName string        `koanf:"from_name"`
	Attempts uint64        `koanf:"attempts"`
	Backoff  time.Duration `koanf:"backoff"`
}

// S3Config configures avatar storage. An empty Bucket disables uploads.
type S3Config struct {
	Bucket          string `koanf:"bucket"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	PublicBaseURL   string `koanf:"public_base_url"`
	UsePathStyle    bool   `koanf:"use_path_style"`
}

type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() AppConfig {
	return AppConfig{
		Auth: contactAuth.DefaultConfig(),
		HTTP: HTTPConfig{
			Addr:              ":8000",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			PublicURL:         "http://localhost:8000",
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Postgres: PostgresConfig{
			MaxConns: 10,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		SMTP: SMTPConfig{
			Port:     465,
			FromName: "Contacts API",
			Attempts: 3,
			Backoff:  time.Second,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
	}
}

// Load builds an AppConfig. path may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (AppConfig, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return AppConfig{}, oops.Code("CONFIG_FILE_INVALID").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return AppConfig{}, oops.Code("CONFIG_ENV_INVALID").Wrap(err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return AppConfig{}, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return AppConfig{}, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}

	if err := cfg.loadKeys(); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func (c *AppConfig) loadKeys() error {
	if c.Keys.Secret != "" {
		c.Auth.JWT.PrivateKey = []byte(c.Keys.Secret)
	}
	if c.Keys.PrivateKeyFile != "" {
		b, err := os.ReadFile(c.Keys.PrivateKeyFile)
		if err != nil {
			return oops.Code("CONFIG_KEY_UNREADABLE").With("path", c.Keys.PrivateKeyFile).Wrap(err)
		}
		c.Auth.JWT.PrivateKey = b
	}
	if c.Keys.PublicKeyFile != "" {
		b, err := os.ReadFile(c.Keys.PublicKeyFile)
		if err != nil {
			return oops.Code("CONFIG_KEY_UNREADABLE").With("path", c.Keys.PublicKeyFile).Wrap(err)
		}
		c.Auth.JWT.PublicKey = b
	}
	return nil
}

// Validate checks the service sections and then the engine config.
func (c *AppConfig) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr must not be empty")
	}
	if c.HTTP.RequestsPerSecond < 0 || c.HTTP.Burst < 0 {
		return errors.New("http request limits must be >= 0")
	}
	if c.HTTP.RequestsPerSecond > 0 && c.HTTP.Burst == 0 {
		return errors.New("http.burst must be > 0 when requests_per_second is set")
	}
	if c.Redis.Addr == "" {
		return errors.New("redis.addr must not be empty")
	}
	if c.SMTP.Host != "" {
		if c.SMTP.From == "" {
			return errors.New("smtp.from is required when smtp.host is set")
		}
		if c.SMTP.Port <= 0 {
			return fmt.Errorf("smtp.port %d is invalid", c.SMTP.Port)
		}
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format %q must be json or text", c.Log.Format)
	}
	return c.Auth.Validate()
}
