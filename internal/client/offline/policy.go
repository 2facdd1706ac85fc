package offline

import (
	"fmt"
	"math"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy decides how long a failed entry waits before the next automatic attempt.
type RetryPolicy interface {
	NextDelay(attempts int) time.Duration
}

// NoBackoff retries failed entries on every pass.
type NoBackoff struct{}

func (NoBackoff) NextDelay(int) time.Duration { return 0 }

// ExponentialBackoff waits Base*2^(attempts-1), capped at Max.
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

func (p ExponentialBackoff) NextDelay(attempts int) time.Duration {
	if attempts <= 0 || p.Base <= 0 {
		return 0
	}

	limit := p.Max
	if limit <= 0 {
		limit = math.MaxInt64
	}

	// backoff из go-retry хранит номер попытки, поэтому создается на каждый вызов
	b := retry.WithCappedDuration(limit, retry.NewExponential(p.Base))

	var delay time.Duration
	for range attempts {
		delay, _ = b.Next()
		if delay >= limit {
			break
		}
	}
	return delay
}

// PolicyByName builds a policy from its config name ("none" or "exponential").
func PolicyByName(name string, base, maxDelay time.Duration) (RetryPolicy, error) {
	switch name {
	case "", "none":
		return NoBackoff{}, nil
	case "exponential":
		return ExponentialBackoff{Base: base, Max: maxDelay}, nil
	default:
		return nil, fmt.Errorf("unknown retry policy %q", name)
	}
}
