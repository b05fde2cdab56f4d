package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/notify"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// codeBox records the last two-factor code delivered per recipient.
type codeBox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (b *codeBox) Send(_ context.Context, msg notify.Message) error {
	code := codePattern.FindString(msg.Body)
	if code == "" {
		return errors.New("no code in message")
	}
	b.mu.Lock()
	b.codes[msg.To] = code
	b.mu.Unlock()
	return nil
}

func (b *codeBox) code(to string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[to]
}

func main() {
	var (
		rounds      = flag.Int("rounds", 200, "race rounds per phase (signup + 2fa replay)")
		concurrency = flag.Int("concurrency", 16, "number of concurrent contenders per round")
		ops         = flag.Int("ops", 50000, "token validate operations")
		redisURL    = flag.String("redis-url", "", "redis URL; if empty, REDIS_URL env or miniredis is used")
		prefix      = flag.String("prefix", "ac", "ephemeral key prefix")
	)
	flag.Parse()

	if *rounds <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "rounds, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	url := *redisURL
	if url == "" {
		url = os.Getenv("REDIS_URL")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if url == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		opts, err := redis.ParseURL(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid redis url: %v\n", err)
			os.Exit(2)
		}
		client = redis.NewClient(opts)
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", opts.Addr)
	}
	defer cleanup()

	cfg := authcore.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("loadtest-secret-0123456789abcdef0123")
	cfg.Store.Prefix = *prefix
	cfg.Guard.Threshold = 1 << 20
	cfg.Notify.RatePerSecond = 0
	cfg.Metrics.EnableLatencyHistograms = true
	// Cheap hashing keeps the phases about contention, not argon2.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	box := &codeBox{codes: make(map[string]string)}
	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithSender(box).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	runID := time.Now().UnixNano()

	signupStats, signupViolations := runSignupRace(ctx, engine, runID, *rounds, *concurrency)
	replayStats, replayViolations := runReplayRace(ctx, engine, box, runID, *rounds, *concurrency)
	validateStats := runValidatePhase(ctx, engine, runID, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("signup-race", signupStats)
	printStats("2fa-replay", replayStats)
	printStats("validate", validateStats)
	fmt.Printf("violations: signup=%d 2fa-replay=%d\n", signupViolations, replayViolations)

	if signupViolations > 0 || replayViolations > 0 {
		os.Exit(1)
	}
}

// runSignupRace has every contender register the same email per round.
// A round with more than one success is a violation.
func runSignupRace(ctx context.Context, engine *authcore.Engine, runID int64, rounds, concurrency int) (phaseStats, int) {
	var (
		latencies  = make([]time.Duration, 0, rounds*concurrency)
		mu         sync.Mutex
		failures   int64
		violations int
	)

	start := time.Now()
	for round := 0; round < rounds; round++ {
		email := fmt.Sprintf("race-%d-%d@load.test", runID, round)
		var (
			wg        sync.WaitGroup
			successes int64
		)
		for w := 0; w < concurrency; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				t0 := time.Now()
				_, err := engine.Signup(ctx, email, "load-test-password", false)
				d := time.Since(t0)
				switch {
				case err == nil:
					atomic.AddInt64(&successes, 1)
				case !errors.Is(err, authcore.ErrDuplicateEmail):
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}()
		}
		wg.Wait()
		if successes != 1 {
			violations++
		}
	}
	total := time.Since(start)
	return computeStats(total, latencies, failures), violations
}

// runReplayRace submits one delivered code from every contender at once.
// A round that yields more than one token is a violation.
func runReplayRace(ctx context.Context, engine *authcore.Engine, box *codeBox, runID int64, rounds, concurrency int) (phaseStats, int) {
	const password = "load-test-password"

	email := fmt.Sprintf("replay-%d@load.test", runID)
	if _, err := engine.Signup(ctx, email, password, true); err != nil {
		fmt.Fprintf(os.Stderr, "replay signup failed: %v\n", err)
		os.Exit(1)
	}

	var (
		latencies  = make([]time.Duration, 0, rounds*concurrency)
		mu         sync.Mutex
		failures   int64
		violations int
	)

	start := time.Now()
	for round := 0; round < rounds; round++ {
		login, err := engine.Login(ctx, email, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "replay login failed: %v\n", err)
			os.Exit(1)
		}
		code := box.code(email)

		var (
			wg        sync.WaitGroup
			successes int64
		)
		for w := 0; w < concurrency; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				t0 := time.Now()
				_, err := engine.VerifyTwoFactor(ctx, email, login.LoginAttemptID, code)
				d := time.Since(t0)
				switch {
				case err == nil:
					atomic.AddInt64(&successes, 1)
				case !errors.Is(err, authcore.ErrChallengeExpired):
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}()
		}
		wg.Wait()
		if successes > 1 {
			violations++
		}
	}
	total := time.Since(start)
	return computeStats(total, latencies, failures), violations
}

func runValidatePhase(ctx context.Context, engine *authcore.Engine, runID int64, ops, concurrency int) phaseStats {
	const password = "load-test-password"

	tokens := make([]string, 0, 64)
	for i := 0; i < cap(tokens); i++ {
		email := fmt.Sprintf("validate-%d-%d@load.test", runID, i)
		if _, err := engine.Signup(ctx, email, password, false); err != nil {
			fmt.Fprintf(os.Stderr, "validate signup failed: %v\n", err)
			os.Exit(1)
		}
		res, err := engine.Login(ctx, email, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "validate login failed: %v\n", err)
			os.Exit(1)
		}
		tokens = append(tokens, res.Token)
	}

	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				_, err := engine.Validate(ctx, tokens[r.Intn(len(tokens))])
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
