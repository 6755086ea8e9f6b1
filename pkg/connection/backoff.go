package connection

import (
	"math/rand"
	"sync"
	"time"
)

// Default retry timing for stream connections.
const (
	// DefaultInitialDelay is the delay before the first retry.
	DefaultInitialDelay = 1 * time.Second

	// DefaultMaxDelay caps the retry delay.
	DefaultMaxDelay = 30 * time.Second

	// DefaultMultiplier is the growth factor between retries.
	DefaultMultiplier = 2.0

	// DefaultJitter is the maximum random fraction added to each delay.
	DefaultJitter = 0.2
)

// BackoffConfig customizes retry timing. Zero values fall back to the
// package defaults.
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64
}

// Backoff produces exponentially growing, jittered retry delays.
// Safe for concurrent use.
type Backoff struct {
	mu       sync.Mutex
	cfg      BackoffConfig
	current  time.Duration
	attempts int
	rng      *rand.Rand
}

// NewBackoff returns a Backoff using cfg, defaulting any zero field.
func NewBackoff(cfg BackoffConfig) *Backoff {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = DefaultMultiplier
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	return &Backoff{
		cfg:     cfg,
		current: cfg.InitialDelay,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the delay to wait before the next attempt and advances
// the sequence.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.current
	if b.cfg.Jitter > 0 {
		delay += time.Duration(float64(delay) * b.cfg.Jitter * b.rng.Float64())
	}

	b.attempts++
	next := time.Duration(float64(b.current) * b.cfg.Multiplier)
	if next > b.cfg.MaxDelay {
		next = b.cfg.MaxDelay
	}
	b.current = next

	return delay
}

// Reset rewinds the sequence after a successful connection.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.cfg.InitialDelay
	b.attempts = 0
}

// Attempts reports how many delays have been handed out since the last
// reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}
