package narrative

import (
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether a model may be called right now. Implementations
// must be safe for concurrent use.
type Limiter interface {
	Allow() bool
}

// HourlyLimiter allows up to perHour calls per rolling hour, refilling one
// call every hour/perHour.
type HourlyLimiter struct {
	limiter *rate.Limiter
}

// NewHourlyLimiter creates a limiter for perHour calls. perHour <= 0 means
// no limit.
func NewHourlyLimiter(perHour int) *HourlyLimiter {
	if perHour <= 0 {
		return &HourlyLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &HourlyLimiter{
		limiter: rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), perHour),
	}
}

// Allow consumes one call if available.
func (l *HourlyLimiter) Allow() bool {
	return l.limiter.Allow()
}

// Remaining reports how many calls are currently available.
func (l *HourlyLimiter) Remaining() int {
	if l.limiter.Limit() == rate.Inf {
		return -1
	}
	return int(l.limiter.Tokens())
}
