package prospectindata

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/NavagantProd/prospectindata/internal/backoff"
)

// BackoffStrategy selects how retry delays grow between attempts.
type BackoffStrategy int

const (
	// ExponentialJitter doubles (by the configured multiplier) the delay
	// each attempt, capped, with uniform jitter. The default.
	ExponentialJitter BackoffStrategy = iota

	// DecorrelatedJitter is AWS-style decorrelated jitter, which smooths
	// tail latencies under heavy contention.
	DecorrelatedJitter
)

func (s BackoffStrategy) calculator() *backoff.Calculator {
	if s == DecorrelatedJitter {
		return backoff.NewCalculator(backoff.DecorrelatedJitterStrategy{})
	}
	return backoff.NewCalculator(backoff.ExponentialJitterStrategy{})
}

// retryAfter parses a Retry-After header value, supporting both delay-seconds
// and HTTP-date forms. Returns 0 when absent or unusable, in which case the
// caller falls back to computed backoff. Capped at an hour so a confused
// upstream cannot park a worker all day.
func retryAfter(h http.Header) time.Duration {
	value := h.Get("Retry-After")
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if seconds <= 0 {
			return 0
		}
		delay := time.Duration(seconds) * time.Second
		if delay > time.Hour {
			delay = time.Hour
		}
		return delay
	}

	if t, err := http.ParseTime(value); err == nil {
		delay := time.Until(t)
		if delay > 0 && delay <= time.Hour {
			return delay
		}
	}

	return 0
}
