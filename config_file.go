package authcore

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultSecretEnv names the environment variable holding the HS256 secret
// when a config file does not override jwt.secret_env.
const DefaultSecretEnv = "JWT_SECRET"

type fileConfig struct {
	JWT struct {
		TTL            time.Duration `toml:"ttl"`
		SigningMethod  string        `toml:"signing_method"`
		SecretEnv      string        `toml:"secret_env"`
		PrivateKeyFile string        `toml:"private_key_file"`
		PublicKeyFile  string        `toml:"public_key_file"`
		Issuer         string        `toml:"issuer"`
		Audience       string        `toml:"audience"`
		Leeway         time.Duration `toml:"leeway"`
		KeyID          string        `toml:"key_id"`
	} `toml:"jwt"`

	TwoFactor struct {
		TTL time.Duration `toml:"ttl"`
	} `toml:"two_factor"`

	Guard struct {
		Threshold int           `toml:"threshold"`
		Window    time.Duration `toml:"window"`
	} `toml:"guard"`

	Password struct {
		Memory           uint32 `toml:"memory"`
		Time             uint32 `toml:"time"`
		Parallelism      uint8  `toml:"parallelism"`
		SaltLength       uint32 `toml:"salt_length"`
		KeyLength        uint32 `toml:"key_length"`
		MaxPasswordBytes int    `toml:"max_password_bytes"`
	} `toml:"password"`

	Catalog struct {
		Driver           string `toml:"driver"`
		DSN              string `toml:"dsn"`
		MinPasswordBytes int    `toml:"min_password_bytes"`
	} `toml:"catalog"`

	Store struct {
		RedisURL        string        `toml:"redis_url"`
		Prefix          string        `toml:"prefix"`
		Timeout         time.Duration `toml:"timeout"`
		JanitorInterval time.Duration `toml:"janitor_interval"`
	} `toml:"store"`

	Notify struct {
		RatePerSecond float64 `toml:"rate_per_second"`
		Burst         int     `toml:"burst"`
	} `toml:"notify"`

	Audit struct {
		Enabled    bool `toml:"enabled"`
		BufferSize int  `toml:"buffer_size"`
		DropIfFull bool `toml:"drop_if_full"`
	} `toml:"audit"`

	Metrics struct {
		Enabled           bool `toml:"enabled"`
		LatencyHistograms bool `toml:"latency_histograms"`
	} `toml:"metrics"`
}

// LoadConfigFile reads a TOML file on top of DefaultConfig and validates the
// result. Durations are written as strings ("15m"). Secrets never live in the
// file: the HS256 secret comes from the environment variable named by
// jwt.secret_env, and Ed25519 keys are read from the referenced PEM files.
// Unknown keys are rejected.
func LoadConfigFile(path string) (Config, error) {
	fc := toFileConfig(defaultConfig())
	fc.JWT.SecretEnv = DefaultSecretEnv

	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg := fc.toConfig()
	if err := loadKeys(&cfg, fc); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadKeys(cfg *Config, fc fileConfig) error {
	switch strings.ToLower(fc.JWT.SigningMethod) {
	case "ed25519":
		if fc.JWT.PrivateKeyFile == "" || fc.JWT.PublicKeyFile == "" {
			return fmt.Errorf("ed25519 requires jwt.private_key_file and jwt.public_key_file")
		}
		priv, err := os.ReadFile(fc.JWT.PrivateKeyFile)
		if err != nil {
			return fmt.Errorf("read private key: %w", err)
		}
		pub, err := os.ReadFile(fc.JWT.PublicKeyFile)
		if err != nil {
			return fmt.Errorf("read public key: %w", err)
		}
		cfg.JWT.PrivateKey = priv
		cfg.JWT.PublicKey = pub
	default:
		if fc.JWT.SecretEnv == "" {
			return fmt.Errorf("jwt.secret_env must name an environment variable")
		}
		secret := os.Getenv(fc.JWT.SecretEnv)
		if secret == "" {
			return fmt.Errorf("environment variable %s is not set", fc.JWT.SecretEnv)
		}
		cfg.JWT.PrivateKey = []byte(secret)
	}
	return nil
}

func toFileConfig(cfg Config) fileConfig {
	var fc fileConfig
	fc.JWT.TTL = cfg.JWT.TTL
	fc.JWT.SigningMethod = cfg.JWT.SigningMethod
	fc.JWT.Issuer = cfg.JWT.Issuer
	fc.JWT.Audience = cfg.JWT.Audience
	fc.JWT.Leeway = cfg.JWT.Leeway
	fc.JWT.KeyID = cfg.JWT.KeyID

	fc.TwoFactor.TTL = cfg.TwoFactor.TTL

	fc.Guard.Threshold = cfg.Guard.Threshold
	fc.Guard.Window = cfg.Guard.Window

	fc.Password.Memory = cfg.Password.Memory
	fc.Password.Time = cfg.Password.Time
	fc.Password.Parallelism = cfg.Password.Parallelism
	fc.Password.SaltLength = cfg.Password.SaltLength
	fc.Password.KeyLength = cfg.Password.KeyLength
	fc.Password.MaxPasswordBytes = cfg.Password.MaxPasswordBytes

	fc.Catalog.Driver = cfg.Catalog.Driver
	fc.Catalog.DSN = cfg.Catalog.DSN
	fc.Catalog.MinPasswordBytes = cfg.Catalog.MinPasswordBytes

	fc.Store.RedisURL = cfg.Store.RedisURL
	fc.Store.Prefix = cfg.Store.Prefix
	fc.Store.Timeout = cfg.Store.Timeout
	fc.Store.JanitorInterval = cfg.Store.JanitorInterval

	fc.Notify.RatePerSecond = cfg.Notify.RatePerSecond
	fc.Notify.Burst = cfg.Notify.Burst

	fc.Audit.Enabled = cfg.Audit.Enabled
	fc.Audit.BufferSize = cfg.Audit.BufferSize
	fc.Audit.DropIfFull = cfg.Audit.DropIfFull

	fc.Metrics.Enabled = cfg.Metrics.Enabled
	fc.Metrics.LatencyHistograms = cfg.Metrics.EnableLatencyHistograms
	return fc
}

func (fc fileConfig) toConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.TTL = fc.JWT.TTL
	cfg.JWT.SigningMethod = strings.ToLower(fc.JWT.SigningMethod)
	cfg.JWT.Issuer = fc.JWT.Issuer
	cfg.JWT.Audience = fc.JWT.Audience
	cfg.JWT.Leeway = fc.JWT.Leeway
	cfg.JWT.KeyID = fc.JWT.KeyID

	cfg.TwoFactor.TTL = fc.TwoFactor.TTL

	cfg.Guard.Threshold = fc.Guard.Threshold
	cfg.Guard.Window = fc.Guard.Window

	cfg.Password.Memory = fc.Password.Memory
	cfg.Password.Time = fc.Password.Time
	cfg.Password.Parallelism = fc.Password.Parallelism
	cfg.Password.SaltLength = fc.Password.SaltLength
	cfg.Password.KeyLength = fc.Password.KeyLength
	cfg.Password.MaxPasswordBytes = fc.Password.MaxPasswordBytes

	cfg.Catalog.Driver = strings.ToLower(fc.Catalog.Driver)
	cfg.Catalog.DSN = fc.Catalog.DSN
	cfg.Catalog.MinPasswordBytes = fc.Catalog.MinPasswordBytes

	cfg.Store.RedisURL = fc.Store.RedisURL
	cfg.Store.Prefix = fc.Store.Prefix
	cfg.Store.Timeout = fc.Store.Timeout
	cfg.Store.JanitorInterval = fc.Store.JanitorInterval

	cfg.Notify.RatePerSecond = fc.Notify.RatePerSecond
	cfg.Notify.Burst = fc.Notify.Burst

	cfg.Audit.Enabled = fc.Audit.Enabled
	cfg.Audit.BufferSize = fc.Audit.BufferSize
	cfg.Audit.DropIfFull = fc.Audit.DropIfFull

	cfg.Metrics.Enabled = fc.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = fc.Metrics.LatencyHistograms
	return cfg
}
