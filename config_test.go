package authcore

import (
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func TestDefaultConfigNeedsOnlyAKey(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected default config without key to be rejected")
	}

	cfg = validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config with key to validate, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{name: "jwt ttl lower bound", mutate: func(c *Config) { c.JWT.TTL = 15 * time.Minute }, wantValid: true},
		{name: "jwt ttl upper bound", mutate: func(c *Config) { c.JWT.TTL = 60 * time.Minute }, wantValid: true},
		{name: "jwt ttl too short", mutate: func(c *Config) { c.JWT.TTL = 10 * time.Minute }, wantValid: false},
		{name: "jwt ttl too long", mutate: func(c *Config) { c.JWT.TTL = 61 * time.Minute }, wantValid: false},
		{name: "jwt short secret", mutate: func(c *Config) { c.JWT.PrivateKey = []byte("short") }, wantValid: false},
		{name: "jwt signing invalid", mutate: func(c *Config) { c.JWT.SigningMethod = "rs256" }, wantValid: false},
		{name: "ed25519 without public key", mutate: func(c *Config) { c.JWT.SigningMethod = "ed25519" }, wantValid: false},
		{name: "jwt leeway valid", mutate: func(c *Config) { c.JWT.Leeway = 45 * time.Second }, wantValid: true},
		{name: "jwt leeway invalid", mutate: func(c *Config) { c.JWT.Leeway = 3 * time.Minute }, wantValid: false},
		{name: "2fa ttl 10m", mutate: func(c *Config) { c.TwoFactor.TTL = 10 * time.Minute }, wantValid: true},
		{name: "2fa ttl too short", mutate: func(c *Config) { c.TwoFactor.TTL = time.Minute }, wantValid: false},
		{name: "2fa ttl too long", mutate: func(c *Config) { c.TwoFactor.TTL = 11 * time.Minute }, wantValid: false},
		{name: "2fa digits", mutate: func(c *Config) { c.TwoFactor.Digits = 8 }, wantValid: false},
		{name: "guard threshold zero", mutate: func(c *Config) { c.Guard.Threshold = 0 }, wantValid: false},
		{name: "guard window tiny", mutate: func(c *Config) { c.Guard.Window = time.Millisecond }, wantValid: false},
		{name: "argon2 weak memory", mutate: func(c *Config) { c.Password.Memory = 1024 }, wantValid: false},
		{name: "argon2 short salt", mutate: func(c *Config) { c.Password.SaltLength = 8 }, wantValid: false},
		{name: "catalog driver sqlite", mutate: func(c *Config) { c.Catalog.Driver = "sqlite" }, wantValid: true},
		{name: "catalog driver unknown", mutate: func(c *Config) { c.Catalog.Driver = "mysql" }, wantValid: false},
		{name: "min password above max", mutate: func(c *Config) { c.Catalog.MinPasswordBytes = 2048 }, wantValid: false},
		{name: "store prefix with colon", mutate: func(c *Config) { c.Store.Prefix = "a:b" }, wantValid: false},
		{name: "notify burst missing", mutate: func(c *Config) { c.Notify.Burst = 0 }, wantValid: false},
		{name: "notify throttle off", mutate: func(c *Config) { c.Notify.RatePerSecond = 0; c.Notify.Burst = 0 }, wantValid: true},
		{name: "audit zero buffer", mutate: func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }, wantValid: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config")
			}
		})
	}
}

func TestCloneConfigCopiesKeys(t *testing.T) {
	cfg := validTestConfig()
	clone := cloneConfig(cfg)
	clone.JWT.PrivateKey[0] = 'X'

	if cfg.JWT.PrivateKey[0] == 'X' {
		t.Fatal("cloneConfig shares the key slice")
	}
}
