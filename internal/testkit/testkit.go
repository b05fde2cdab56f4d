// Package testkit holds deterministic clocks and failing stores shared by
// authcore tests.
package testkit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrEthical07/authcore/ephemeral"
)

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Unix(1_700_000_000, 0).UTC()}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ErrBroken is the cause wrapped by every BrokenStore failure.
var ErrBroken = errors.New("store offline")

// BrokenStore fails every call.
type BrokenStore struct{}

func (BrokenStore) fail() error {
	return fmt.Errorf("%w: %v", ephemeral.ErrUnavailable, ErrBroken)
}

func (s BrokenStore) SetWithTTL(context.Context, string, []byte, time.Duration) error {
	return s.fail()
}

func (s BrokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, s.fail()
}

func (s BrokenStore) FetchAndDelete(context.Context, string) ([]byte, bool, error) {
	return nil, false, s.fail()
}

func (s BrokenStore) DeleteIfEqual(context.Context, string, []byte) (bool, error) {
	return false, s.fail()
}

func (s BrokenStore) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, s.fail()
}

func (s BrokenStore) TTL(context.Context, string) (time.Duration, bool, error) {
	return 0, false, s.fail()
}

// Switchable delegates to Store until Break is called.
type Switchable struct {
	ephemeral.Store
	mu     sync.Mutex
	broken bool
}

func (s *Switchable) Break() {
	s.mu.Lock()
	s.broken = true
	s.mu.Unlock()
}

func (s *Switchable) Repair() {
	s.mu.Lock()
	s.broken = false
	s.mu.Unlock()
}

func (s *Switchable) target() ephemeral.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return BrokenStore{}
	}
	return s.Store
}

func (s *Switchable) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.target().SetWithTTL(ctx, key, value, ttl)
}

func (s *Switchable) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.target().Get(ctx, key)
}

func (s *Switchable) FetchAndDelete(ctx context.Context, key string) ([]byte, bool, error) {
	return s.target().FetchAndDelete(ctx, key)
}

func (s *Switchable) DeleteIfEqual(ctx context.Context, key string, expected []byte) (bool, error) {
	return s.target().DeleteIfEqual(ctx, key, expected)
}

func (s *Switchable) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return s.target().Increment(ctx, key, ttl)
}

func (s *Switchable) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	return s.target().TTL(ctx, key)
}
