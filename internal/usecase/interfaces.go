package usecase

import "time"

// RateLimiter is satisfied by ratelimit.RateLimiter.
type RateLimiter interface {
	Allow(userID, action string) (bool, time.Duration)
}

type noLimit struct{}

func (noLimit) Allow(string, string) (bool, time.Duration) { return true, 0 }

// NoLimit never throttles.
var NoLimit RateLimiter = noLimit{}

// Clock supplies the application's notion of now.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }
