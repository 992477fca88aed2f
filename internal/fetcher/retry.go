package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nbadata/ingestion/internal/metrics"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// Policy bounds how hard a single remote request is retried
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	AttemptTimeout time.Duration
}

// FetchExhaustedError reports a request that failed on every allowed attempt,
// or stopped early on an error that retrying cannot fix.
// Team is zero for requests not scoped to one team.
type FetchExhaustedError struct {
	Operation string
	Team      int64
	Attempts  int
	Err       error
}

func (e *FetchExhaustedError) Error() string {
	if e.Team != 0 {
		return fmt.Sprintf("%s for team %d failed after %d attempts: %v", e.Operation, e.Team, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

func (e *FetchExhaustedError) Unwrap() error {
	return e.Err
}

// Retrier runs operations under a Policy
type Retrier struct {
	policy    Policy
	retryable func(error) bool
}

// NewRetrier creates a retrier. A nil classifier treats every error except
// cancellation as transient.
func NewRetrier(policy Policy, retryable func(error) bool) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if retryable == nil {
		retryable = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}
	return &Retrier{policy: policy, retryable: retryable}
}

// Policy returns the retrier's policy
func (r *Retrier) Policy() Policy {
	return r.policy
}

func (r *Retrier) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if r.policy.InitialBackoff > 0 {
		b.InitialInterval = r.policy.InitialBackoff
	}
	if r.policy.MaxBackoff > 0 {
		b.MaxInterval = r.policy.MaxBackoff
	}
	return b
}

// Do calls fn until it succeeds, the policy's attempts run out, fn returns a
// non-retryable error, or ctx ends. Every failure is a *FetchExhaustedError
// except cancellation of ctx itself, which is returned as is.
func Do[T any](ctx context.Context, r *Retrier, operation string, team int64, fn func(context.Context) (T, error)) (T, error) {
	attempts := 0
	attempt := func() (T, error) {
		attempts++
		actx := ctx
		if r.policy.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, r.policy.AttemptTimeout)
			defer cancel()
		}

		res, err := fn(actx)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return res, backoff.Permanent(ctx.Err())
		}
		if !r.retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	notify := func(err error, wait time.Duration) {
		metrics.RecordFetchRetry(operation)
		log.Warn().
			Err(err).
			Str("operation", operation).
			Int64("team_id", team).
			Int("attempt", attempts).
			Dur("backoff", wait).
			Msg("Fetch failed, retrying after backoff")
	}

	res, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(r.backOff()),
		backoff.WithMaxTries(uint(r.policy.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	if err == nil {
		return res, nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return res, err
	}

	metrics.RecordFetchExhausted(operation)
	return res, &FetchExhaustedError{Operation: operation, Team: team, Attempts: attempts, Err: err}
}
