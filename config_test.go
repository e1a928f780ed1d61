package contactAuth

import (
	"testing"
	"time"
)

func TestDefaultConfigNeedsKey(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without a signing key")
	}
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid default config, got %v", err)
	}
	if !cfg.Security.StrictConfirmScope {
		t.Fatal("strict confirm scope must default on")
	}
	if cfg.Security.ThrottleFailOpen {
		t.Fatal("throttle must fail closed by default")
	}
	if cfg.Cache.TTL != 900*time.Second {
		t.Fatalf("unexpected cache ttl %s", cfg.Cache.TTL)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"short hmac key":    func(c *Config) { c.JWT.PrivateKey = []byte("short") },
		"unknown method":    func(c *Config) { c.JWT.SigningMethod = "rs256" },
		"ed25519 no key":    func(c *Config) { c.JWT.SigningMethod = "ed25519"; c.JWT.PrivateKey = nil },
		"sub-second ttl":    func(c *Config) { c.JWT.AccessTTL = 500 * time.Millisecond },
		"refresh < access":  func(c *Config) { c.JWT.RefreshTTL = time.Minute },
		"leeway":            func(c *Config) { c.JWT.Leeway = time.Hour },
		"weak memory":       func(c *Config) { c.Password.Memory = 1024 },
		"short salt":        func(c *Config) { c.Password.SaltLength = 8 },
		"empty prefix":      func(c *Config) { c.Cache.Prefix = "" },
		"zero cache ttl":    func(c *Config) { c.Cache.TTL = 0 },
		"throttle attempts": func(c *Config) { c.Security.MaxLoginAttempts = 0 },
		"throttle cooldown": func(c *Config) { c.Security.LoginCooldown = 0 },
		"audit buffer":      func(c *Config) { c.Audit.BufferSize = 0 },
		"notify timeout":    func(c *Config) { c.Notify.Timeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCloneConfigCopiesKeys(t *testing.T) {
	cfg := testConfig()
	clone := cloneConfig(cfg)
	clone.JWT.PrivateKey[0] = 'X'
	if cfg.JWT.PrivateKey[0] == 'X' {
		t.Fatal("clone shares key bytes")
	}
}
