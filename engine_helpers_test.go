package authcore

import (
	"context"
	"sync"
	"testing"

	"github.com/MrEthical07/authcore/ephemeral"
	"github.com/MrEthical07/authcore/internal/testkit"
	"github.com/MrEthical07/authcore/notify"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// engineTestConfig is a valid config with cheap argon2 parameters and no
// outbound throttling.
func engineTestConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Notify.RatePerSecond = 0
	cfg.Notify.Burst = 0
	cfg.Store.JanitorInterval = 0
	return cfg
}

// captureSender keeps every message so tests can read the delivered codes.
type captureSender struct {
	mu       sync.Mutex
	messages []notify.Message
	fail     error
}

func (s *captureSender) Send(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// lastCode returns the most recent code sent to the address.
func (s *captureSender) lastCode(t *testing.T, to string) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].To != to {
			continue
		}
		if code := firstDigits(s.messages[i].Body, 6); code != "" {
			return code
		}
	}
	t.Fatalf("no code sent to %s", to)
	return ""
}

func firstDigits(s string, n int) string {
	run := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			run++
			if run == n {
				return s[i-n+1 : i+1]
			}
			continue
		}
		run = 0
	}
	return ""
}

func otherCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}

type testEngine struct {
	*Engine
	clock  *testkit.Clock
	store  *testkit.Switchable
	sender *captureSender
}

// newTestEngineWith builds an engine over an in-process store with a manual
// clock. mutate may adjust the config and the builder before Build.
func newTestEngineWith(t *testing.T, mutate func(*Config, *Builder)) *testEngine {
	t.Helper()

	clock := testkit.NewClock()
	store := &testkit.Switchable{Store: ephemeral.NewMemoryStore(clock.Now)}
	sender := &captureSender{}

	cfg := engineTestConfig()
	b := New().WithStore(store).WithSender(sender).WithClock(clock.Now)
	if mutate != nil {
		mutate(&cfg, b)
	}
	engine, err := b.WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEngine{Engine: engine, clock: clock, store: store, sender: sender}
}

func newTestEngine(t *testing.T) *testEngine {
	return newTestEngineWith(t, nil)
}
