package ratelimiter

import (
	"sync"
	"time"

	"github.com/SeakMengs/CertEditor/internal/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key (usually the client ip).
// A bucket refills RequestsPerTimeFrame tokens per TimeFrame and can burst to
// the same amount.
type RateLimiter struct {
	cfg    config.RateLimiterConfig
	logger *zap.SugaredLogger

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *RateLimiter {
	// For unit test
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.TimeFrame <= 0 {
		cfg.TimeFrame = time.Minute
	}
	if cfg.RequestsPerTimeFrame <= 0 {
		cfg.RequestsPerTimeFrame = 1
	}

	return &RateLimiter{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

func (rl *RateLimiter) Enabled() bool {
	return rl.cfg.Enabled
}

// Allow reports whether the client may make a request now. When it may not,
// the duration tells how long until the next token.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	c, ok := rl.clients[key]
	if !ok {
		every := rl.cfg.TimeFrame / time.Duration(rl.cfg.RequestsPerTimeFrame)
		c = &client{limiter: rate.NewLimiter(rate.Every(every), rl.cfg.RequestsPerTimeFrame)}
		rl.clients[key] = c
	}
	c.lastSeen = now

	r := c.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		rl.logger.Debugf("Rate limit exceeded for %s, retry in %s", key, delay)
		return false, delay
	}
	return true, 0
}

// sweep forgets clients idle for more than a time frame, they would have a
// full bucket anyway.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.cfg.TimeFrame {
		return
	}
	rl.lastSweep = now

	for key, c := range rl.clients {
		if now.Sub(c.lastSeen) > rl.cfg.TimeFrame {
			delete(rl.clients, key)
		}
	}
}
