// Package retry re-runs remote operations whose failure a Matcher accepts,
// with jittered exponential backoff between attempts.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/MrSnakeDoc/metafetch/internal/config"
	"github.com/MrSnakeDoc/metafetch/internal/logger"
)

const (
	DefaultMaxAttempts     = 3
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 10 * time.Second
	DefaultMultiplier      = 2.0
)

// Matcher decides whether an error is worth another attempt.
// *retryfilter.Filter satisfies it.
type Matcher interface {
	Matches(err error) bool
}

// MatcherFunc adapts a plain function to Matcher.
type MatcherFunc func(err error) bool

func (f MatcherFunc) Matches(err error) bool { return f(err) }

// Never declines every error.
var Never Matcher = MatcherFunc(func(error) bool { return false })

type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     DefaultMaxAttempts,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		Multiplier:      DefaultMultiplier,
	}
}

// PolicyFromConfig reads the attempt and interval settings of the retry
// section. Zero values fall back to the defaults.
func PolicyFromConfig(c config.RetryConfig) Policy {
	p := DefaultPolicy()
	if c.MaxAttempts != 0 {
		p.MaxAttempts = c.MaxAttempts
	}
	if c.InitialInterval > 0 {
		p.InitialInterval = c.InitialInterval
	}
	if c.MaxInterval > 0 {
		p.MaxInterval = c.MaxInterval
	}
	return p.normalize()
}

func (p Policy) normalize() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = DefaultInitialInterval
	}
	if p.MaxInterval < p.InitialInterval {
		p.MaxInterval = p.InitialInterval
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultMultiplier
	}
	return p
}

type Retrier struct {
	policy  Policy
	matcher Matcher
}

// New returns a Retrier. A nil matcher never retries.
func New(policy Policy, m Matcher) *Retrier {
	if m == nil {
		m = Never
	}
	return &Retrier{policy: policy.normalize(), matcher: m}
}

func (r *Retrier) Policy() Policy { return r.policy }

// Do runs fn until it succeeds, the matcher declines its error, attempts
// run out or ctx is done. The last error of fn is returned as is.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		err := fn(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if !r.matcher.Matches(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     r.policy.InitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          r.policy.Multiplier,
		MaxInterval:         r.policy.MaxInterval,
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.policy.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Debug("%s: attempt %d/%d failed, retrying in %s: %v",
				op, attempt, r.policy.MaxAttempts, next.Round(time.Millisecond), err)
		}),
	)

	// Retry hands back the permanent wrapper when the last try declines.
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Unwrap()
	}
	return err
}
