package relay

import (
	"math/rand/v2"
	"time"
)

const jitterFraction = 5 // up to 1/5 of the pause

type backoff struct {
	base, max, cur time.Duration
}

func newBackoff(base, max time.Duration) *backoff {
	return &backoff{base: base, max: max}
}

// next doubles the pause from base up to max.
func (b *backoff) next() time.Duration {
	switch {
	case b.cur <= 0:
		b.cur = b.base
	case b.cur >= b.max/2:
		b.cur = b.max
	default:
		b.cur *= 2
	}
	return b.cur
}

func (b *backoff) reset() { b.cur = 0 }

func jitter(d time.Duration) time.Duration {
	if d < jitterFraction {
		return d
	}
	return d + rand.N(d/jitterFraction)
}
