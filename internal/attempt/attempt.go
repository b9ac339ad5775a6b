// Package attempt runs an operation against an ordered list of candidates,
// one at a time, until one succeeds.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Record describes one failed try against a candidate.
type Record struct {
	Pass      int
	Candidate string
	Err       error
	Elapsed   time.Duration
}

func (r Record) String() string {
	return fmt.Sprintf("pass %d %s: %v", r.Pass, r.Candidate, r.Err)
}

// Policy controls how many times the full candidate list is scanned.
// A pass after the first waits Backoff multiplied by the pass number.
type Policy struct {
	RetryPasses int
	Backoff     time.Duration
}

type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

// Abort marks err as non-retryable: the scan stops at once instead of moving
// to the next candidate.
func Abort(err error) error {
	if err == nil {
		return nil
	}
	return &abortError{err: err}
}

func IsAbort(err error) bool {
	var a *abortError
	return errors.As(err, &a)
}

// ErrExhausted is returned (wrapped) when every candidate failed on every pass.
var ErrExhausted = errors.New("all candidates exhausted")

// Run calls fn for each candidate in order. Candidates are never tried in
// parallel. It returns the first success, or the failure records and an
// error wrapping ErrExhausted, the aborting error, or the context error.
func Run[C any, T any](ctx context.Context, candidates []C, name func(C) string, policy Policy, fn func(context.Context, C) (T, error)) (T, []Record, error) {
	var zero T
	var records []Record
	if len(candidates) == 0 {
		return zero, nil, fmt.Errorf("no candidates: %w", ErrExhausted)
	}

	passes := 1 + max(policy.RetryPasses, 0)
	for pass := 0; pass < passes; pass++ {
		if pass > 0 && policy.Backoff > 0 {
			if err := sleep(ctx, policy.Backoff*time.Duration(pass)); err != nil {
				return zero, records, err
			}
		}
		for _, c := range candidates {
			if err := ctx.Err(); err != nil {
				return zero, records, err
			}
			started := time.Now()
			out, err := fn(ctx, c)
			if err == nil {
				return out, records, nil
			}
			records = append(records, Record{
				Pass:      pass + 1,
				Candidate: name(c),
				Err:       err,
				Elapsed:   time.Since(started),
			})
			if IsAbort(err) {
				return zero, records, err
			}
		}
	}
	last := records[len(records)-1].Err
	return zero, records, fmt.Errorf("%w after %d attempts, last error: %w", ErrExhausted, len(records), last)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
