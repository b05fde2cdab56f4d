package authcore

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBuilderIsSingleUse(t *testing.T) {
	b := New().WithConfig(engineTestConfig())
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	cfg := engineTestConfig()
	cfg.JWT.PrivateKey = nil
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected Build to reject a missing key")
	}
}

func TestBuilderDefaultsToInProcessStore(t *testing.T) {
	cfg := engineTestConfig()
	cfg.Store.JanitorInterval = 0
	engine, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	if _, err := engine.Signup(ctx, "mem@x.com", scenarioPassword, false); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	res, err := engine.Login(ctx, "mem@x.com", scenarioPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := engine.Validate(ctx, res.Token); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestBuilderRedisURL(t *testing.T) {
	mr, _ := newTestRedis(t)

	cfg := engineTestConfig()
	cfg.Store.RedisURL = "redis://" + mr.Addr() + "/0"
	cfg.Store.Prefix = "svc"
	engine, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	if _, err := engine.Login(ctx, "ghost@x.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	keys := mr.Keys()
	if len(keys) != 1 || !strings.HasPrefix(keys[0], "svc:att:login:") {
		t.Fatalf("expected one prefixed attempt counter, got %v", keys)
	}
}

func TestBuilderRejectsBadRedisURL(t *testing.T) {
	cfg := engineTestConfig()
	cfg.Store.RedisURL = "http://not-redis"
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected Build to reject a non-redis url")
	}
}

func TestBuilderSQLiteCatalog(t *testing.T) {
	cfg := engineTestConfig()
	cfg.Catalog.Driver = CatalogSQLite
	cfg.Catalog.DSN = ":memory:"
	engine, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	if _, err := engine.Signup(ctx, "lite@x.com", scenarioPassword, false); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, err := engine.Signup(ctx, "lite@x.com", scenarioPassword, false); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if _, err := engine.Login(ctx, "lite@x.com", scenarioPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestBuilderSQLCatalogRequiresDSN(t *testing.T) {
	for _, driver := range []string{CatalogSQLite, CatalogPostgres} {
		cfg := engineTestConfig()
		cfg.Catalog.Driver = driver
		if _, err := New().WithConfig(cfg).Build(); err == nil {
			t.Fatalf("%s: expected Build to require a DSN", driver)
		}
	}
}
