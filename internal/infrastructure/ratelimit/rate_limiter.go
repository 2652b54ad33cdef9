package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"marketsync/pkg/logger"
)

const (
	ActionSendMessage      = "send_message"
	ActionToggleMembership = "toggle_membership"
)

// Rule is a token bucket: Burst actions at once, refilled at PerMinute.
type Rule struct {
	PerMinute float64
	Burst     int
}

func (r Rule) limit() rate.Limit {
	return rate.Limit(r.PerMinute / 60)
}

// DefaultRules returns the per-action buckets. messagesPerMinute comes from config.
func DefaultRules(messagesPerMinute int) map[string]Rule {
	return map[string]Rule{
		ActionSendMessage:      {PerMinute: float64(messagesPerMinute), Burst: 10},
		ActionToggleMembership: {PerMinute: 120, Burst: 20},
	}
}

var defaultRule = Rule{PerMinute: 20, Burst: 20}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one bucket per user and action.
type RateLimiter struct {
	rules map[string]Rule
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*entry
}

func NewRateLimiter(rules map[string]Rule) *RateLimiter {
	return &RateLimiter{
		rules:   rules,
		now:     time.Now,
		buckets: make(map[string]*entry),
	}
}

func (rl *RateLimiter) bucket(userID, action string, now time.Time) *rate.Limiter {
	key := userID + ":" + action

	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.buckets[key]
	if !ok {
		rule, ok := rl.rules[action]
		if !ok {
			rule = defaultRule
		}
		e = &entry{limiter: rate.NewLimiter(rule.limit(), rule.Burst)}
		rl.buckets[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Allow consumes a token for the action. When none is left it reports how long
// the caller should wait before retrying.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	now := rl.now()
	lim := rl.bucket(userID, action, now)

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Minute
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Cleanup drops buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) int {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, e := range rl.buckets {
		if now.Sub(e.lastSeen) > maxIdle {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := rl.Cleanup(time.Hour); n > 0 {
					logger.Debug("rate limiter buckets dropped", "count", n)
				}
			}
		}
	}()
}
