package authcore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/twofactor"
)

// Config is the full engine configuration. Start from DefaultConfig and
// override what the deployment needs.
type Config struct {
	JWT       JWTConfig
	TwoFactor TwoFactorConfig
	Guard     GuardConfig
	Password  PasswordConfig
	Catalog   CatalogConfig
	Store     StoreConfig
	Notify    NotifyConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures bearer tokens. TTL must lie between 15 and 60 minutes.
type JWTConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte // HS256 secret or Ed25519 private key
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
}

/*
====================================
CHALLENGE AND ATTEMPT POLICY
====================================
*/

type TwoFactorConfig struct {
	TTL    time.Duration
	Digits int
}

// GuardConfig sets the brute-force lockout policy shared by login and 2FA.
type GuardConfig struct {
	Threshold int
	Window    time.Duration
}

/*
====================================
PASSWORD AND CATALOG
====================================
*/

// PasswordConfig holds argon2id cost parameters.
type PasswordConfig struct {
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

// CatalogConfig selects the user table backend. Driver is "memory" (default),
// "sqlite" or "postgres"; DSN is required for the latter two unless a backend
// is supplied through Builder.WithCatalogBackend.
type CatalogConfig struct {
	Driver           string
	DSN              string
	MinPasswordBytes int
}

/*
====================================
STORE, NOTIFY, AUDIT, METRICS
====================================
*/

// StoreConfig configures the ephemeral store. Without RedisURL or an explicit
// client or store, an in-process store is used.
type StoreConfig struct {
	RedisURL        string
	Prefix          string
	Timeout         time.Duration
	JanitorInterval time.Duration
}

// NotifyConfig bounds outbound message throughput. A zero RatePerSecond
// disables throttling.
type NotifyConfig struct {
	RatePerSecond float64
	Burst         int
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	CatalogMemory   = "memory"
	CatalogSQLite   = "sqlite"
	CatalogPostgres = "postgres"
)

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns production defaults. JWT keys are left empty and must
// be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			TTL:           15 * time.Minute,
			SigningMethod: string(jwt.MethodHS256),
		},
		TwoFactor: TwoFactorConfig{
			TTL:    twofactor.DefaultTTL,
			Digits: twofactor.DefaultDigits,
		},
		Guard: GuardConfig{
			Threshold: 5,
			Window:    15 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:           64 * 1024,
			Time:             3,
			Parallelism:      2,
			SaltLength:       16,
			KeyLength:        32,
			MaxPasswordBytes: 1024,
		},
		Catalog: CatalogConfig{
			Driver:           CatalogMemory,
			MinPasswordBytes: 8,
		},
		Store: StoreConfig{
			Prefix:          "ac",
			Timeout:         2 * time.Second,
			JanitorInterval: time.Minute,
		},
		Notify: NotifyConfig{
			RatePerSecond: 10,
			Burst:         20,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks every section and returns the first violation.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.TTL < jwt.MinTTL || c.JWT.TTL > jwt.MaxTTL {
		return fmt.Errorf("JWT TTL must be between %v and %v", jwt.MinTTL, jwt.MaxTTL)
	}
	switch jwt.SigningMethod(c.JWT.SigningMethod) {
	case jwt.MethodHS256:
		if len(c.JWT.PrivateKey) < 32 {
			return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
		}
	case jwt.MethodEd25519:
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Two-factor
	if c.TwoFactor.TTL < twofactor.MinTTL || c.TwoFactor.TTL > twofactor.MaxTTL {
		return fmt.Errorf("TwoFactor TTL must be between %v and %v", twofactor.MinTTL, twofactor.MaxTTL)
	}
	if c.TwoFactor.Digits != twofactor.DefaultDigits {
		return errors.New("TwoFactor Digits must be 6")
	}

	// Guard
	if c.Guard.Threshold < 1 {
		return errors.New("Guard Threshold must be >= 1")
	}
	if c.Guard.Window < time.Second {
		return errors.New("Guard Window must be >= 1s")
	}

	// Password
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

	// Catalog
	switch strings.ToLower(c.Catalog.Driver) {
	case "", CatalogMemory, CatalogSQLite, CatalogPostgres:
	default:
		return fmt.Errorf("unsupported Catalog Driver %q", c.Catalog.Driver)
	}
	if c.Catalog.MinPasswordBytes < 1 {
		return errors.New("Catalog MinPasswordBytes must be >= 1")
	}
	if c.Password.MaxPasswordBytes > 0 && c.Catalog.MinPasswordBytes > c.Password.MaxPasswordBytes {
		return errors.New("Catalog MinPasswordBytes exceeds Password MaxPasswordBytes")
	}

	// Store
	if c.Store.Timeout < 0 {
		return errors.New("Store Timeout must be >= 0")
	}
	if c.Store.JanitorInterval < 0 {
		return errors.New("Store JanitorInterval must be >= 0")
	}
	if strings.ContainsAny(c.Store.Prefix, " :") {
		return errors.New("Store Prefix must not contain spaces or colons")
	}

	// Notify
	if c.Notify.RatePerSecond < 0 {
		return errors.New("Notify RatePerSecond must be >= 0")
	}
	if c.Notify.RatePerSecond > 0 && c.Notify.Burst < 1 {
		return errors.New("Notify Burst must be >= 1 when throttling is enabled")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
