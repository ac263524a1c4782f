package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	llmclient "nexa/internal/llmClient"
	"nexa/internal/observability"
)

// RetryPolicy bounds how often and how patiently a call is retried.
type RetryPolicy struct {
	// MaxAttempts counts the first try. Values below 1 mean 1.
	MaxAttempts int
	// Backoff returns the wait after failed attempt n (n starts at 1).
	Backoff func(attempt int) time.Duration
	// Sleep waits for d or until ctx is done, whichever comes first.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy makes 3 attempts, waiting 2s then 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     ExponentialBackoff(time.Second),
		Sleep:       SleepContext,
	}
}

// ExponentialBackoff returns 2^attempt * base.
func ExponentialBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt < 0 {
			attempt = 0
		}
		return base * time.Duration(1<<uint(attempt))
	}
}

// SleepContext blocks for d unless ctx ends first, in which case the timer
// is released and ctx.Err() returned.
func SleepContext(ctx context.Context, d time.Duration) error {
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

// Attempt describes the outcome of one try.
type Attempt struct {
	Number int
	Err    error
	// Wait is the backoff before the next attempt; zero when none follows.
	Wait  time.Duration
	Final bool
}

// Do runs fn until it succeeds, the policy is exhausted, fn returns a
// permanent error, or ctx ends. It waits between attempts, never after the
// last one, and returns the last error. observe may be nil.
func Do[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context, attempt int) (T, error), observe func(Attempt)) (T, error) {
	var zero T
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = ExponentialBackoff(time.Second)
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	if observe == nil {
		observe = func(Attempt) {}
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := fn(ctx, attempt)
		if err == nil {
			observe(Attempt{Number: attempt, Final: true})
			return v, nil
		}
		// Stop immediately if the context is canceled.
		if cerr := ctx.Err(); cerr != nil {
			observe(Attempt{Number: attempt, Err: cerr, Final: true})
			return zero, cerr
		}
		last := attempt >= maxAttempts || llmclient.IsPermanent(err)
		a := Attempt{Number: attempt, Err: err, Final: last}
		if !last {
			a.Wait = backoff(attempt)
		}
		observe(a)
		if last {
			return zero, err
		}
		if err := sleep(ctx, a.Wait); err != nil {
			return zero, err
		}
	}
}

// -------- Retry with exponential backoff --------

// Retry retries Generate according to policy and logs every attempt.
// Permanent errors and context cancellation end the loop at once.
// metrics may be nil.
func Retry(policy RetryPolicy, log *zap.Logger, metrics *observability.Metrics) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next LLMClient) LLMClient {
		return &generateFunc{next: next, fn: func(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
			phase := PhaseFrom(ctx)
			observe := func(a Attempt) {
				fields := []zap.Field{
					zap.String("phase", phase),
					zap.Int("attempt", a.Number),
					zap.Int("max_attempts", policy.MaxAttempts),
				}
				switch {
				case a.Err == nil:
					log.Info("llm attempt succeeded", fields...)
				case a.Final:
					log.Error("llm attempt failed, giving up", append(fields, zap.Error(a.Err))...)
				default:
					log.Warn("llm attempt failed, retrying", append(fields, zap.Duration("backoff", a.Wait), zap.Error(a.Err))...)
					if metrics != nil {
						metrics.LLMRetries.WithLabelValues(phase).Inc()
					}
				}
			}
			return Do(ctx, policy, func(ctx context.Context, _ int) (string, error) {
				return next.Generate(ctx, prompt, cfg)
			}, observe)
		}}
	}
}
