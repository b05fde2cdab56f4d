package authcore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/catalog"
	"github.com/MrEthical07/authcore/catalog/postgres"
	"github.com/MrEthical07/authcore/catalog/sqlite"
	"github.com/MrEthical07/authcore/ephemeral"
	"github.com/MrEthical07/authcore/guard"
	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/notify"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/revocation"
	"github.com/MrEthical07/authcore/token"
	"github.com/MrEthical07/authcore/twofactor"
	"github.com/redis/go-redis/v9"
)

// catalogOpenTimeout bounds connecting to a SQL catalog during Build.
const catalogOpenTimeout = 10 * time.Second

// Builder assembles an Engine. A Builder is single use: configure it during
// initialization, call Build once, and discard it.
type Builder struct {
	config Config

	redis   redis.UniversalClient
	store   ephemeral.Store
	backend catalog.Backend
	sender  notify.Sender

	auditSink AuditSink
	logger    *slog.Logger
	clock     func() time.Time

	built bool
}

// New returns a builder holding DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs the ephemeral store with client. The caller keeps ownership
// of the client; Engine.Close does not close it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore supplies the ephemeral store directly. It takes precedence over
// WithRedis and Store.RedisURL.
func (b *Builder) WithStore(store ephemeral.Store) *Builder {
	b.store = store
	return b
}

// WithCatalogBackend supplies the user table. It takes precedence over
// Catalog.Driver.
func (b *Builder) WithCatalogBackend(backend catalog.Backend) *Builder {
	b.backend = backend
	return b
}

// WithSender routes two-factor codes through sender. Without one, deliveries
// are only logged.
func (b *Builder) WithSender(sender notify.Sender) *Builder {
	b.sender = sender
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source of every component. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the components. A failed Build
// releases whatever it opened.
func (b *Builder) Build() (_ *Engine, err error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	engine := &Engine{
		config: cfg,
		logger: logger,
		clock:  clock,
	}
	defer func() {
		if err != nil {
			engine.Close()
		}
	}()

	// -------- EPHEMERAL STORE --------
	store, err := b.buildStore(engine, cfg, clock)
	if err != nil {
		return nil, err
	}

	// -------- CATALOG --------
	hasher, err := password.NewArgon2(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, err
	}

	backend, err := b.buildBackend(engine, cfg)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.New(backend, hasher, catalog.Config{
		MinPasswordBytes: cfg.Catalog.MinPasswordBytes,
		Timeout:          cfg.Store.Timeout,
		Now:              clock,
	}, logger.With("component", "catalog"))
	if err != nil {
		return nil, err
	}
	engine.catalog = cat

	// -------- GUARD AND TWO-FACTOR --------
	g, err := guard.New(store, guard.Config{
		Threshold: cfg.Guard.Threshold,
		Window:    cfg.Guard.Window,
		Timeout:   cfg.Store.Timeout,
	})
	if err != nil {
		return nil, err
	}
	engine.guard = g

	verifier, err := twofactor.New(store, g, twofactor.Config{
		TTL:     cfg.TwoFactor.TTL,
		Digits:  cfg.TwoFactor.Digits,
		Timeout: cfg.Store.Timeout,
		Now:     clock,
	})
	if err != nil {
		return nil, err
	}
	engine.twoFactor = verifier

	// -------- TOKENS --------
	jm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.JWT.TTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		KeyID:         cfg.JWT.KeyID,
		Now:           clock,
	})
	if err != nil {
		return nil, err
	}

	authority, err := revocation.New(store, revocation.Config{
		Timeout: cfg.Store.Timeout,
		Now:     clock,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := token.New(jm, authority)
	if err != nil {
		return nil, err
	}
	engine.tokens = tokens

	// -------- OUTBOUND, AUDIT, METRICS --------
	sender := b.sender
	if sender == nil {
		sender = notify.LogSender{Logger: logger.With("component", "notify")}
	}
	if cfg.Notify.RatePerSecond > 0 {
		throttled, err := notify.NewThrottled(sender, cfg.Notify.RatePerSecond, cfg.Notify.Burst)
		if err != nil {
			return nil, err
		}
		sender = throttled
	}
	engine.sender = sender

	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}

func (b *Builder) buildStore(engine *Engine, cfg Config, clock func() time.Time) (ephemeral.Store, error) {
	switch {
	case b.store != nil:
		return b.store, nil
	case b.redis != nil:
		return ephemeral.NewRedisStore(b.redis, cfg.Store.Prefix), nil
	case cfg.Store.RedisURL != "":
		opts, err := redis.ParseURL(cfg.Store.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		engine.closers = append(engine.closers, client.Close)
		return ephemeral.NewRedisStore(client, cfg.Store.Prefix), nil
	default:
		mem := ephemeral.NewMemoryStore(clock)
		if cfg.Store.JanitorInterval > 0 {
			ctx, cancel := context.WithCancel(context.Background())
			mem.StartJanitor(ctx, cfg.Store.JanitorInterval)
			engine.closers = append(engine.closers, func() error {
				cancel()
				return nil
			})
		}
		return mem, nil
	}
}

func (b *Builder) buildBackend(engine *Engine, cfg Config) (catalog.Backend, error) {
	if b.backend != nil {
		return b.backend, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), catalogOpenTimeout)
	defer cancel()

	switch strings.ToLower(cfg.Catalog.Driver) {
	case "", CatalogMemory:
		return catalog.NewMemoryBackend(), nil
	case CatalogSQLite:
		if cfg.Catalog.DSN == "" {
			return nil, errors.New("sqlite catalog requires a DSN")
		}
		backend, err := sqlite.Open(ctx, cfg.Catalog.DSN)
		if err != nil {
			return nil, err
		}
		engine.closers = append(engine.closers, backend.Close)
		return backend, nil
	case CatalogPostgres:
		if cfg.Catalog.DSN == "" {
			return nil, errors.New("postgres catalog requires a DSN")
		}
		backend, err := postgres.Open(ctx, cfg.Catalog.DSN)
		if err != nil {
			return nil, err
		}
		engine.closers = append(engine.closers, backend.Close)
		if err := backend.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", cfg.Catalog.Driver)
	}
}
