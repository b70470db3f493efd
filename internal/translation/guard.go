package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// breakerFailures is the number of translations in a row that must fail,
// retry included, before the backend is no longer called
const breakerFailures = 3

// guard wraps every request of a remote backend: pacing, a circuit breaker
// and the single retry after a cooldown
type guard struct {
	name     string
	breaker  *gobreaker.CircuitBreaker
	limiter  *rate.Limiter // nil when pacing is disabled
	cooldown time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	log      *slog.Logger
}

func newGuard(name string, config *Config) *guard {
	log := config.logger()

	g := &guard{
		name:     name,
		cooldown: config.Cooldown,
		sleep:    sleepContext,
		log:      log,
	}
	if !config.NoLimit && config.Delay > 0 {
		g.limiter = rate.NewLimiter(rate.Every(config.Delay), 1)
	}

	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: 10 * time.Minute,
		Timeout:  2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// One count per translation, retry included
			return counts.ConsecutiveFailures >= breakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "backend", name, "from", from.String(), "to", to.String())
		},
	})
	return g
}

// paced runs one request after waiting for the limiter
func paced[T any](ctx context.Context, g *guard, fn func(context.Context) (T, error)) (T, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			var zero T
			return zero, err
		}
	}
	return fn(ctx)
}

// withRetry runs first and, if it fails, waits out the cooldown and runs
// retry once. The breaker sees the sequence as one call. A failed retry is
// returned as a *BackendError.
func withRetry[T any](ctx context.Context, g *guard, first, retry func(context.Context) (T, error)) (T, error) {
	var zero T

	res, err := g.breaker.Execute(func() (interface{}, error) {
		return attempt(ctx, g, first, retry)
	})
	if err != nil {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, &BackendError{Provider: g.name, Err: fmt.Errorf("%w: %v", ErrCircuitOpen, err)}
		}
		return zero, err
	}
	return res.(T), nil
}

func attempt[T any](ctx context.Context, g *guard, first, retry func(context.Context) (T, error)) (T, error) {
	var zero T

	res, err := paced(ctx, g, first)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return zero, ctx.Err()
	}

	g.log.Warn("translation request failed, will retry after cooldown",
		"backend", g.name, "error", err, "cooldown", g.cooldown)
	if err := g.sleep(ctx, g.cooldown); err != nil {
		return zero, err
	}

	res, err = paced(ctx, g, retry)
	if err != nil {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, &BackendError{Provider: g.name, Err: err}
	}
	return res, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
