package contactAuth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/contactAuth/jwt"
	"github.com/MrEthical07/contactAuth/password"
	"github.com/MrEthical07/contactAuth/session"
)

// Config is the Engine configuration. Start from DefaultConfig and override
// what you need; Build validates the result.
type Config struct {
	JWT      JWTConfig      `koanf:"jwt"`
	Password PasswordConfig `koanf:"password"`
	Cache    CacheConfig    `koanf:"cache"`
	Security SecurityConfig `koanf:"security"`
	Audit    AuditConfig    `koanf:"audit"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Notify   NotifyConfig   `koanf:"notify"`
}

/*
====================================
JWT CONFIG
====================================
*/

type JWTConfig struct {
	SigningMethod string `koanf:"signing_method"` // "hs256" (default) or "ed25519"
	// PrivateKey is the HMAC secret for hs256 (at least 32 bytes) or the
	// ed25519 signing key.
	PrivateKey []byte `koanf:"-"`
	PublicKey  []byte `koanf:"-"`
	KeyID      string `koanf:"key_id"`

	Issuer   string        `koanf:"issuer"`
	Audience string        `koanf:"audience"`
	Leeway   time.Duration `koanf:"leeway"`

	AccessTTL      time.Duration `koanf:"access_ttl"`
	RefreshTTL     time.Duration `koanf:"refresh_ttl"`
	EmailVerifyTTL time.Duration `koanf:"email_verify_ttl"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig is the argon2id work factor. Memory is in KiB.
type PasswordConfig struct {
	Memory           uint32 `koanf:"memory"`
	Time             uint32 `koanf:"time"`
	Parallelism      uint8  `koanf:"parallelism"`
	SaltLength       uint32 `koanf:"salt_length"`
	KeyLength        uint32 `koanf:"key_length"`
	MaxPasswordBytes int    `koanf:"max_password_bytes"`
}

/*
====================================
CACHE CONFIG
====================================
*/

type CacheConfig struct {
	Prefix string        `koanf:"prefix"`
	TTL    time.Duration `koanf:"ttl"`
}

/*
====================================
SECURITY CONFIG
====================================
*/

type SecurityConfig struct {
	// StrictConfirmScope makes ConfirmEmail accept only email_verify tokens.
	// When false any valid token confirms its subject.
	StrictConfirmScope bool `koanf:"strict_confirm_scope"`

	EnableLoginThrottle bool          `koanf:"enable_login_throttle"`
	EnableIPThrottle    bool          `koanf:"enable_ip_throttle"`
	MaxLoginAttempts    int           `koanf:"max_login_attempts"`
	LoginCooldown       time.Duration `koanf:"login_cooldown"`
	// ThrottleFailOpen lets logins through when Redis cannot answer the
	// throttle check. Off by default.
	ThrottleFailOpen bool `koanf:"throttle_fail_open"`
}

/*
====================================
AUDIT / METRICS / NOTIFY
====================================
*/

type AuditConfig struct {
	Enabled    bool `koanf:"enabled"`
	BufferSize int  `koanf:"buffer_size"`
	DropIfFull bool `koanf:"drop_if_full"`
	// SinkTimeout bounds each delivery to the sink. Zero disables it.
	SinkTimeout time.Duration `koanf:"sink_timeout"`
}

type MetricsConfig struct {
	Enabled                 bool `koanf:"enabled"`
	EnableLatencyHistograms bool `koanf:"enable_latency_histograms"`
}

type NotifyConfig struct {
	// Timeout bounds each background verification send.
	Timeout time.Duration `koanf:"timeout"`
}

// DefaultConfig returns production defaults. JWT.PrivateKey is left empty
// and must be supplied.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		JWT: JWTConfig{
			SigningMethod:  string(jwt.MethodHS256),
			AccessTTL:      jwt.DefaultAccessTTL,
			RefreshTTL:     jwt.DefaultRefreshTTL,
			EmailVerifyTTL: jwt.DefaultEmailVerifyTTL,
		},
		Password: PasswordConfig{
			Memory:           pw.Memory,
			Time:             pw.Time,
			Parallelism:      pw.Parallelism,
			SaltLength:       pw.SaltLength,
			KeyLength:        pw.KeyLength,
			MaxPasswordBytes: pw.MaxPasswordBytes,
		},
		Cache: CacheConfig{
			Prefix: session.DefaultPrefix,
			TTL:    session.DefaultTTL,
		},
		Security: SecurityConfig{
			StrictConfirmScope:  true,
			EnableLoginThrottle: true,
			EnableIPThrottle:    true,
			MaxLoginAttempts:    5,
			LoginCooldown:       15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:     true,
			BufferSize:  1024,
			DropIfFull:  true,
			SinkTimeout: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Notify: NotifyConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.JWT.SigningMethod {
	case string(jwt.MethodHS256):
		if len(c.JWT.PrivateKey) < 32 {
			return errors.New("JWT hs256 PrivateKey must be at least 32 bytes")
		}
	case string(jwt.MethodEd25519):
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("JWT ed25519 requires PrivateKey")
		}
	default:
		return fmt.Errorf("unsupported JWT signing method %q", c.JWT.SigningMethod)
	}
	if c.JWT.AccessTTL < time.Second || c.JWT.RefreshTTL < time.Second || c.JWT.EmailVerifyTTL < time.Second {
		return errors.New("JWT TTLs must be at least 1s")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must not be shorter than AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be within [0, 2m]")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MaxPasswordBytes < 0 {
		return errors.New("Password MaxPasswordBytes must be >= 0")
	}

	if c.Cache.Prefix == "" {
		return errors.New("Cache Prefix must not be empty")
	}
	if c.Cache.TTL < time.Second {
		return errors.New("Cache TTL must be >= 1s")
	}

	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0")
		}
		if c.Security.LoginCooldown <= 0 {
			return errors.New("Security LoginCooldown must be > 0")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}
	if c.Audit.SinkTimeout < 0 {
		return errors.New("Audit SinkTimeout must be >= 0")
	}

	if c.Notify.Timeout <= 0 {
		return errors.New("Notify Timeout must be > 0")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
